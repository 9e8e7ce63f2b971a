package headless

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// ErrDisabled is returned when a target asks for rendering but the headless
// browser is switched off.
var ErrDisabled = errors.New("headless fetching disabled")

// Noop stands in for the browser when headless fetching is disabled.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch always fails with ErrDisabled.
func (Noop) Fetch(_ context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	return crawler.FetchResponse{}, fmt.Errorf("%w: %s", ErrDisabled, request.URL)
}
