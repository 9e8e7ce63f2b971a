// Package multi fans a batch out to several transports.
package multi

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/metrics"
)

// Transport is a named publisher.
type Transport struct {
	Name      string
	Publisher crawler.Publisher
}

// Publisher hands every batch to each transport in turn.
type Publisher struct {
	transports []Transport
	logger     *zap.Logger
}

// New returns a fan-out Publisher.
func New(logger *zap.Logger, transports ...Transport) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{transports: transports, logger: logger.Named("publish")}
}

// Names lists the configured transports.
func (p *Publisher) Names() []string {
	names := make([]string, len(p.transports))
	for i, t := range p.transports {
		names[i] = t.Name
	}
	return names
}

// Publish sends records to every transport. A failing transport does not
// stop the others; all failures are joined into the returned error.
func (p *Publisher) Publish(ctx context.Context, records []crawler.Property) error {
	var errs []error
	for _, t := range p.transports {
		if err := t.Publisher.Publish(ctx, records); err != nil {
			metrics.ObservePublish(t.Name, "failed", len(records))
			p.logger.Error("publish failed",
				zap.String("transport", t.Name),
				zap.Int("records", len(records)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		metrics.ObservePublish(t.Name, "ok", len(records))
	}
	return errors.Join(errs...)
}
