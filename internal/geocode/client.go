// Package geocode resolves listing addresses to coordinates through a
// Nominatim-compatible search endpoint and attaches them to records.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// DefaultURL is the public Nominatim search endpoint.
const DefaultURL = "https://nominatim.openstreetmap.org/search"

// maxResponseBytes bounds how much of a reply is read.
const maxResponseBytes = 1 << 20

// Config controls the Nominatim client.
type Config struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
}

// Limiter throttles outgoing requests.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Client queries a Nominatim search endpoint. It implements crawler.Geocoder.
type Client struct {
	endpoint  *url.URL
	userAgent string
	limiter   Limiter
	http      *http.Client
}

// NewClient validates cfg and builds a Client. httpClient may be nil.
func NewClient(cfg Config, limiter Limiter, httpClient *http.Client) (*Client, error) {
	raw := cfg.URL
	if raw == "" {
		raw = DefaultURL
	}
	endpoint, err := url.Parse(raw)
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid geocoder url %q", raw)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint:  endpoint,
		userAgent: cfg.UserAgent,
		limiter:   limiter,
		http:      httpClient,
	}, nil
}

// result is one element of the search reply. Numbers arrive as strings.
type result struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
}

// Geocode looks up address and returns the first ranked match. Every failure
// wraps crawler.ErrGeocode.
func (c *Client) Geocode(ctx context.Context, address string) (crawler.Place, error) {
	u := *c.endpoint
	query := u.Query()
	query.Set("q", address)
	query.Set("format", "json")
	u.RawQuery = query.Encode()
	target := u.String()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, target); err != nil {
			return crawler.Place{}, fmt.Errorf("%w: %w", crawler.ErrGeocode, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return crawler.Place{}, fmt.Errorf("%w: build request: %w", crawler.ErrGeocode, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return crawler.Place{}, fmt.Errorf("%w: %w", crawler.ErrGeocode, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return crawler.Place{}, fmt.Errorf("%w: status %d", crawler.ErrGeocode, resp.StatusCode)
	}

	var results []result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&results); err != nil {
		return crawler.Place{}, fmt.Errorf("%w: decode reply: %w", crawler.ErrGeocode, err)
	}
	if len(results) == 0 {
		return crawler.Place{}, fmt.Errorf("%w: no match for %q", crawler.ErrGeocode, address)
	}
	return results[0].place()
}

func (r result) place() (crawler.Place, error) {
	lat, err := parseFloat("lat", r.Lat)
	if err != nil {
		return crawler.Place{}, err
	}
	lon, err := parseFloat("lon", r.Lon)
	if err != nil {
		return crawler.Place{}, err
	}
	if len(r.BoundingBox) != 4 {
		return crawler.Place{}, fmt.Errorf("%w: bounding box has %d values", crawler.ErrGeocode, len(r.BoundingBox))
	}
	// south, north, west, east
	var box [4]float64
	for i, raw := range r.BoundingBox {
		if box[i], err = parseFloat("boundingbox", raw); err != nil {
			return crawler.Place{}, err
		}
	}
	return crawler.Place{
		Coordinate: crawler.Coordinate{Latitude: lat, Longitude: lon},
		Box:        crawler.BoundingBox{MinLat: box[0], MaxLat: box[1], MinLon: box[2], MaxLon: box[3]},
	}, nil
}

func parseFloat(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed %s %q", crawler.ErrGeocode, field, raw)
	}
	return v, nil
}
