// Package ratelimit implements per-host token buckets that keep the crawler
// polite towards listing sites and within the geocoder's usage policy.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/flat-crawler/internal/metrics"
)

// Config holds rate limiter configuration.
type Config struct {
	DefaultRPS   float64
	DefaultBurst int
	// PerHost overrides DefaultRPS for specific hostnames.
	PerHost map[string]float64
}

// Limiter manages per-host rate limits.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
	perHost      map[string]rate.Limit
}

// New creates a new Limiter. A non-positive rate disables limiting.
func New(cfg Config) *Limiter {
	burst := cfg.DefaultBurst
	if burst <= 0 {
		burst = 1
	}
	perHost := make(map[string]rate.Limit, len(cfg.PerHost))
	for host, rps := range cfg.PerHost {
		perHost[strings.ToLower(host)] = toLimit(rps)
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  toLimit(cfg.DefaultRPS),
		defaultBurst: burst,
		perHost:      perHost,
	}
}

// Wait blocks until a token is available for the URL's host, respecting the context.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)
	limiter := l.limiterFor(host)

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(host, waited)
	}
	return nil
}

func (l *Limiter) limiterFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[host]
	if !ok {
		limit, override := l.perHost[host]
		if !override {
			limit = l.defaultRate
		}
		limiter = rate.NewLimiter(limit, l.defaultBurst)
		l.limiters[host] = limiter
	}
	return limiter
}

func toLimit(rps float64) rate.Limit {
	if rps <= 0 {
		return rate.Inf
	}
	return rate.Limit(rps)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}
