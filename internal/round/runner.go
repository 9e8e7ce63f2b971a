// Package round drives the crawl loop. One round crawls every target, keeps
// the records no earlier round has seen, locates and publishes them. The
// records of a round are handed to the next round as explicit State.
package round

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/dispatcher"
	"github.com/JakeFAU/flat-crawler/internal/metrics"
	"github.com/JakeFAU/flat-crawler/internal/reconcile"
)

// DefaultInterval is the pause between two rounds.
const DefaultInterval = 300 * time.Second

// Round outcome labels.
const (
	OutcomePublished     = "published"
	OutcomePrimed        = "primed"
	OutcomePublishFailed = "publish_failed"
	OutcomeFailed        = "failed"
)

// Crawler runs the worker pool over a round's targets.
type Crawler interface {
	Run(ctx context.Context, targets []crawler.Target) dispatcher.Round
}

// Enricher attaches locations to records without dropping any.
type Enricher interface {
	Enrich(ctx context.Context, records []crawler.Property) []crawler.Property
}

// State is carried from one round into the next.
type State struct {
	// Previous is the complete record set of the last finished round.
	Previous []crawler.Property
	// Primed is set once a round has run, so priming happens at most once.
	Primed bool
}

// Report describes one finished round.
type Report struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Targets       int       `json:"targets"`
	FailedTargets int       `json:"failed_targets"`
	DroppedNodes  int       `json:"dropped_nodes"`
	Records       int       `json:"records"`
	New           int       `json:"new"`
	Located       int       `json:"located"`
	Published     int       `json:"published"`
	Primed        bool      `json:"primed"`
	PublishError  string    `json:"publish_error,omitempty"`
}

// Config controls round scheduling.
type Config struct {
	Interval time.Duration
	// PrimeFirstRound records the first round without publishing it.
	PrimeFirstRound bool
}

// Deps are the collaborators of a Runner. Enricher and Status may be nil.
type Deps struct {
	Targets   crawler.TargetSource
	Crawler   Crawler
	Enricher  Enricher
	Publisher crawler.Publisher
	Clock     crawler.Clock
	IDs       crawler.IDGenerator
	Status    *Status
}

// Runner executes rounds.
type Runner struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

// New validates deps and returns a Runner.
func New(deps Deps, cfg Config, logger *zap.Logger) (*Runner, error) {
	switch {
	case deps.Targets == nil:
		return nil, fmt.Errorf("round runner needs a target source")
	case deps.Crawler == nil:
		return nil, fmt.Errorf("round runner needs a crawler")
	case deps.Publisher == nil:
		return nil, fmt.Errorf("round runner needs a publisher")
	case deps.Clock == nil:
		return nil, fmt.Errorf("round runner needs a clock")
	case deps.IDs == nil:
		return nil, fmt.Errorf("round runner needs an id generator")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{deps: deps, cfg: cfg, logger: logger.Named("round")}, nil
}

// Run executes one round against state and returns the state for the next
// round. A publish failure is reported but does not fail the round; the
// returned state then still carries this round's records. An error means the
// round did not complete and state is returned unchanged.
func (r *Runner) Run(ctx context.Context, state State) (State, Report, error) {
	id, err := r.deps.IDs.NewID()
	if err != nil {
		return state, Report{}, fmt.Errorf("round id: %w", err)
	}
	report := Report{ID: id, StartedAt: r.deps.Clock.Now()}
	logger := r.logger.With(zap.String("round_id", id))

	targets, err := r.deps.Targets.Targets(ctx)
	if err != nil {
		return state, r.fail(report, logger), fmt.Errorf("load targets: %w", err)
	}

	crawled := r.deps.Crawler.Run(ctx, targets)
	if err := ctx.Err(); err != nil {
		return state, r.fail(report, logger), fmt.Errorf("round interrupted: %w", err)
	}
	report.Targets = crawled.Targets
	report.FailedTargets = crawled.FailedTargets
	report.DroppedNodes = crawled.DroppedNodes

	current := reconcile.Complete(crawled.Records)
	fresh := reconcile.Reconcile(current, state.Previous)
	report.Records = len(current)
	report.New = len(fresh)
	next := State{Previous: current, Primed: true}

	if r.cfg.PrimeFirstRound && !state.Primed {
		report.Primed = true
		report.FinishedAt = r.deps.Clock.Now()
		logger.Info("priming round recorded, nothing published",
			zap.Int("records", report.Records),
			zap.Int("targets", report.Targets),
		)
		r.finish(report, OutcomePrimed)
		return next, report, nil
	}

	for _, record := range fresh {
		metrics.ObserveNewRecord(string(record.City))
	}
	if r.deps.Enricher != nil && len(fresh) > 0 {
		fresh = r.deps.Enricher.Enrich(ctx, fresh)
	}
	for _, record := range fresh {
		if record.Location != nil {
			report.Located++
		}
	}

	outcome := OutcomePublished
	if len(fresh) > 0 {
		if err := r.deps.Publisher.Publish(ctx, fresh); err != nil {
			outcome = OutcomePublishFailed
			report.PublishError = err.Error()
			logger.Error("publish failed", zap.Int("records", len(fresh)), zap.Error(err))
		} else {
			report.Published = len(fresh)
		}
	}
	report.FinishedAt = r.deps.Clock.Now()

	logger.Info("round finished",
		zap.Int("targets", report.Targets),
		zap.Int("failed_targets", report.FailedTargets),
		zap.Int("records", report.Records),
		zap.Int("new", report.New),
		zap.Int("located", report.Located),
		zap.Int("published", report.Published),
	)
	r.finish(report, outcome)
	return next, report, nil
}

// Loop runs rounds until ctx is cancelled, pausing for the configured
// interval after each round. Failed rounds are logged and retried on the
// next tick.
func (r *Runner) Loop(ctx context.Context, state State) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		next, _, err := r.Run(ctx, state)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			r.logger.Error("round failed", zap.Error(err))
		}
		state = next
		timer.Reset(r.cfg.Interval)
	}
}

func (r *Runner) fail(report Report, logger *zap.Logger) Report {
	report.FinishedAt = r.deps.Clock.Now()
	r.finish(report, OutcomeFailed)
	logger.Debug("round aborted")
	return report
}

func (r *Runner) finish(report Report, outcome string) {
	metrics.ObserveRound(outcome, report.FinishedAt.Sub(report.StartedAt))
	if r.deps.Status != nil {
		r.deps.Status.Record(report, outcome)
	}
}
