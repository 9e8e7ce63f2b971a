package geocode

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/metrics"
)

// Geocode outcome labels.
const (
	statusOK      = "ok"
	statusFailed  = "failed"
	statusSkipped = "skipped"
)

// Enricher attaches locations to records. Lookups run one at a time so the
// geocoder's usage policy is respected.
type Enricher struct {
	geocoder crawler.Geocoder
	logger   *zap.Logger
}

// NewEnricher returns an Enricher backed by geocoder.
func NewEnricher(geocoder crawler.Geocoder, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{geocoder: geocoder, logger: logger.Named("geocode")}
}

// Enrich returns a copy of records in the same order, each located where the
// geocoder could resolve its address. No record is ever dropped.
func (e *Enricher) Enrich(ctx context.Context, records []crawler.Property) []crawler.Property {
	out := make([]crawler.Property, len(records))
	for i, record := range records {
		out[i] = e.Locate(ctx, record)
	}
	return out
}

// Locate returns record with a location attached, or record unchanged when
// it has no data or the lookup fails.
func (e *Enricher) Locate(ctx context.Context, record crawler.Property) crawler.Property {
	if record.Data == nil || record.Data.Address == "" {
		metrics.ObserveGeocode(statusSkipped, 0)
		return record
	}

	query := Query(record.City, record.Data.Address)
	start := time.Now()
	place, err := e.geocoder.Geocode(ctx, query)
	if err != nil {
		metrics.ObserveGeocode(statusFailed, time.Since(start))
		e.logger.Warn("geocoding failed",
			zap.String("source", record.Source),
			zap.String("city", string(record.City)),
			zap.String("address", record.Data.Address),
			zap.String("query", query),
			zap.Error(err),
		)
		return record
	}
	metrics.ObserveGeocode(statusOK, time.Since(start))

	return record.WithLocation(crawler.Location{
		Latitude:          place.Latitude,
		Longitude:         place.Longitude,
		UncertaintyMeters: Uncertainty(place.Box),
	})
}

// Query qualifies address with the record's city unless the address already
// names it. Some sites only print the district.
func Query(city crawler.City, address string) string {
	address = strings.TrimSpace(address)
	if city == "" {
		return address
	}
	lower := strings.ToLower(address)
	for _, name := range []string{string(city), city.LocalName()} {
		if strings.Contains(lower, strings.ToLower(name)) {
			return address
		}
	}
	return address + ", " + city.LocalName()
}
