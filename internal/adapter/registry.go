package adapter

import (
	"fmt"
	"slices"
	"sync"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Adapter ids referenced by target configuration.
const (
	IDImmoScout       = "immoscout"
	IDImmoScoutHouses = "immoscout-houses"
	IDImmowelt        = "immowelt"
	IDSueddeutsche    = "sueddeutsche"
	IDWGGesucht       = "wggesucht"
	IDWohnungsboerse  = "wohnungsboerse"
)

// Registry maps adapter ids to implementations.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]crawler.Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]crawler.Adapter)}
}

// Default returns a registry holding every built-in site adapter.
func Default() *Registry {
	r := NewRegistry()
	immoscout := NewImmoScout()
	r.MustRegister(IDImmoScout, immoscout)
	r.MustRegister(IDImmoScoutHouses, immoscout)
	r.MustRegister(IDImmowelt, NewImmowelt())
	r.MustRegister(IDSueddeutsche, NewSueddeutsche())
	r.MustRegister(IDWGGesucht, NewWGGesucht())
	r.MustRegister(IDWohnungsboerse, NewWohnungsboerse())
	return r
}

// Register adds an adapter under id. Ids are unique.
func (r *Registry) Register(id string, a crawler.Adapter) error {
	if id == "" || a == nil {
		return fmt.Errorf("adapter id and implementation are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("adapter %q already registered", id)
	}
	r.adapters[id] = a
	return nil
}

// MustRegister is Register for static wiring; it panics on duplicates.
func (r *Registry) MustRegister(id string, a crawler.Adapter) {
	if err := r.Register(id, a); err != nil {
		panic(err)
	}
}

// Lookup resolves an adapter id.
func (r *Registry) Lookup(id string) (crawler.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", crawler.ErrUnknownAdapter, id)
	}
	return a, nil
}

// IDs lists the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
