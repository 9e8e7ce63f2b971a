package crawler

import (
	"context"
	"slices"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher fetches a URL and returns the raw body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Adapter holds the extraction knowledge for one listing site.
type Adapter interface {
	// Name is the stable identifier used in logs and as the record source.
	Name() string
	// EntryPointSelector selects one candidate node per listing.
	EntryPointSelector() string
	// Extract reads the listing fields from a single candidate node.
	Extract(node *goquery.Selection) (PropertyData, error)
}

// Publisher hands a batch of records to a downstream transport.
type Publisher interface {
	Publish(ctx context.Context, records []Property) error
}

// Geocoder resolves a free-text address to its best match.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Place, error)
}

// Queue provides enqueue/dequeue semantics for the targets of one round.
type Queue interface {
	Enqueue(ctx context.Context, target Target) error
	Dequeue(ctx context.Context) (Target, error)
}

// TargetSource supplies the targets for the next round.
type TargetSource interface {
	Targets(ctx context.Context) ([]Target, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces round IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// StaticTargets is a TargetSource that returns the same list every round.
type StaticTargets []Target

// Targets returns a copy of the list.
func (s StaticTargets) Targets(context.Context) ([]Target, error) {
	return slices.Clone(s), nil
}
