// Package worker implements the claim loop each member of a round's worker
// pool runs: take a target, load its candidate nodes, extract every node.
package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/metrics"
	"github.com/JakeFAU/flat-crawler/internal/page"
)

// Loader fetches a target and returns its entry-point matches.
type Loader interface {
	Load(ctx context.Context, target crawler.Target, selector string) (page.Candidates, error)
}

// Adapters resolves the adapter a target names.
type Adapters interface {
	Lookup(id string) (crawler.Adapter, error)
}

// Result is what one worker contributes to a round.
type Result struct {
	Records       []crawler.Property
	Targets       int
	FailedTargets int
	DroppedNodes  int
}

// Worker drains a round's queue.
type Worker struct {
	loader   Loader
	adapters Adapters
	clock    crawler.Clock
	logger   *zap.Logger
}

// New constructs a Worker.
func New(loader Loader, adapters Adapters, clock crawler.Clock, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		loader:   loader,
		adapters: adapters,
		clock:    clock,
		logger:   logger,
	}
}

// Run claims targets until the queue is drained or ctx ends and returns the
// records it extracted. Failures never stop the loop.
func (w *Worker) Run(ctx context.Context, queue crawler.Queue) Result {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	var result Result
	for {
		target, err := queue.Dequeue(ctx)
		if err != nil {
			if !errors.Is(err, crawler.ErrQueueDrained) {
				w.logger.Warn("stopping before queue drained", zap.Error(err))
			}
			return result
		}
		result.Targets++

		records, dropped, err := w.processTarget(ctx, target)
		result.DroppedNodes += dropped
		if err != nil {
			result.FailedTargets++
			continue
		}
		result.Records = append(result.Records, records...)
	}
}

func (w *Worker) processTarget(ctx context.Context, target crawler.Target) ([]crawler.Property, int, error) {
	logger := w.logger.With(
		zap.String("adapter", target.Adapter),
		zap.String("city", string(target.City)),
		zap.String("host", target.Host),
	)

	adapter, err := w.adapters.Lookup(target.Adapter)
	if err != nil {
		logger.Error("target skipped", zap.Error(err))
		metrics.ObserveTarget(target.Adapter, metrics.TargetFailed, 0)
		return nil, 0, err
	}
	source := adapter.Name()
	logger = logger.With(zap.String("source", source))

	// Source and city are fixed when processing begins; the capture time is
	// shared by every record of the target.
	base := crawler.NewProperty(source, target.City, w.clock.Now())

	candidates, err := w.loader.Load(ctx, target, adapter.EntryPointSelector())
	if err != nil {
		logger.Error("target failed", zap.String("path", target.Path), zap.Error(err))
		metrics.ObserveTarget(source, metrics.TargetFailed, candidates.Bytes)
		return nil, 0, err
	}

	records := make([]crawler.Property, 0, candidates.Count)
	dropped := 0
	for node := range candidates.Nodes {
		data, err := adapter.Extract(node)
		if err != nil {
			dropped++
			logger.Warn("node dropped", zap.Error(err))
			continue
		}
		records = append(records, base.WithData(data))
	}

	metrics.ObserveTarget(source, metrics.TargetOK, candidates.Bytes)
	metrics.ObserveNodes(source, len(records), dropped)
	logger.Info("target crawled",
		zap.String("url", candidates.URL),
		zap.Int("records", len(records)),
		zap.Int("dropped", dropped),
	)
	return records, dropped, nil
}
