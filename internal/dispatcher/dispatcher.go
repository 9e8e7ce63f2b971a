// Package dispatcher runs one crawl round: it loads the round's targets into
// a queue, starts the worker pool and waits for every worker before merging
// their contributions.
package dispatcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/queue/memory"
	"github.com/JakeFAU/flat-crawler/internal/worker"
)

// Round summarizes a completed round of extraction.
type Round struct {
	Records       []crawler.Property
	Targets       int
	FailedTargets int
	DroppedNodes  int
}

// Dispatcher fans a round's targets out to a fixed pool of workers.
type Dispatcher struct {
	workers []*worker.Worker
	logger  *zap.Logger
}

// New creates a Dispatcher over the given pool.
func New(workers []*worker.Worker, logger *zap.Logger) (*Dispatcher, error) {
	if len(workers) == 0 {
		return nil, fmt.Errorf("dispatcher needs at least one worker")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{workers: workers, logger: logger.Named("dispatcher")}, nil
}

// Run processes every target once and returns after all workers finished.
// Records come back in no particular order.
func (d *Dispatcher) Run(ctx context.Context, targets []crawler.Target) Round {
	queue := memory.Load(targets)
	results := make([]worker.Result, len(d.workers))

	// Each worker owns one slot; nothing reads them before Wait returns.
	var g errgroup.Group
	for i, w := range d.workers {
		g.Go(func() error {
			results[i] = w.Run(ctx, queue)
			return nil
		})
	}
	_ = g.Wait()

	var round Round
	for _, r := range results {
		round.Records = append(round.Records, r.Records...)
		round.Targets += r.Targets
		round.FailedTargets += r.FailedTargets
		round.DroppedNodes += r.DroppedNodes
	}
	if unclaimed := queue.Len(); unclaimed > 0 {
		d.logger.Warn("round ended with unclaimed targets", zap.Int("unclaimed", unclaimed))
	}
	d.logger.Debug("workers synchronized",
		zap.Int("workers", len(d.workers)),
		zap.Int("targets", round.Targets),
		zap.Int("records", len(round.Records)),
	)
	return round
}
