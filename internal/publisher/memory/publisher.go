// Package memory contains an in-memory publisher for tests and dry runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Publisher stores published batches for inspection.
type Publisher struct {
	mu      sync.RWMutex
	batches [][]crawler.Property
	err     error
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes every later Publish return err without recording the batch.
// A nil err restores normal behavior.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records the batch. Empty batches are recorded too so callers can
// count publish calls.
func (p *Publisher) Publish(_ context.Context, records []crawler.Property) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, slices.Clone(records))
	return nil
}

// Batches returns a copy of the recorded publish calls.
func (p *Publisher) Batches() [][]crawler.Property {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([][]crawler.Property, len(p.batches))
	for i, batch := range p.batches {
		out[i] = slices.Clone(batch)
	}
	return out
}

// Records returns every recorded record in publish order.
func (p *Publisher) Records() []crawler.Property {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []crawler.Property
	for _, batch := range p.batches {
		out = append(out, batch...)
	}
	return out
}
