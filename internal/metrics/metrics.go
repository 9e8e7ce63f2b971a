// Package metrics exposes Prometheus collectors for the flat crawler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Target outcomes.
const (
	TargetOK     = "ok"
	TargetFailed = "failed"
)

var (
	roundsTotal             *prometheus.CounterVec
	roundDurationSeconds    prometheus.Histogram
	targetsTotal            *prometheus.CounterVec
	bytesTotal              *prometheus.CounterVec
	nodesTotal              *prometheus.CounterVec
	newRecordsTotal         *prometheus.CounterVec
	geocodeTotal            *prometheus.CounterVec
	geocodeDurationSeconds  prometheus.Histogram
	publishedTotal          *prometheus.CounterVec
	activeWorkers           prometheus.Gauge
	rateLimitDelaysSeconds  *prometheus.HistogramVec
	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDurationSecs *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		roundsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatcrawler_rounds_total",
				Help: "Total number of crawl rounds, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		roundDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flatcrawler_round_duration_seconds",
				Help:    "Wall time of a full round from dispatch to publish.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		)

		targetsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatcrawler_targets_total",
				Help: "Total number of targets processed, labeled by source and status.",
			},
			[]string{"source", "status"},
		)

		bytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatcrawler_bytes_total",
				Help: "Total number of bytes fetched, labeled by source.",
			},
			[]string{"source"},
		)

		nodesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatcrawler_nodes_total",
				Help: "Candidate nodes seen, labeled by source and whether extraction succeeded.",
			},
			[]string{"source", "status"},
		)

		newRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatcrawler_new_records_total",
				Help: "Records that survived reconciliation, labeled by city.",
			},
			[]string{"city"},
		)

		geocodeTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatcrawler_geocode_total",
				Help: "Geocoding lookups, labeled by status.",
			},
			[]string{"status"},
		)

		geocodeDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flatcrawler_geocode_duration_seconds",
				Help:    "Latency of geocoding lookups including rate limit waits.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
			},
		)

		publishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatcrawler_published_total",
				Help: "Records handed to transports, labeled by transport and status.",
			},
			[]string{"transport", "status"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "flatcrawler_active_workers",
				Help: "Number of workers currently processing a round.",
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flatcrawler_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveRound records a finished round.
func ObserveRound(outcome string, duration time.Duration) {
	Init()
	roundsTotal.WithLabelValues(outcome).Inc()
	roundDurationSeconds.Observe(duration.Seconds())
}

// ObserveTarget records the outcome of one target and the bytes it fetched.
func ObserveTarget(source, status string, bytesFetched int) {
	Init()
	targetsTotal.WithLabelValues(source, status).Inc()
	if bytesFetched > 0 {
		bytesTotal.WithLabelValues(source).Add(float64(bytesFetched))
	}
}

// ObserveNodes records how many candidate nodes of a target were extracted or dropped.
func ObserveNodes(source string, extracted, dropped int) {
	Init()
	nodesTotal.WithLabelValues(source, "extracted").Add(float64(extracted))
	nodesTotal.WithLabelValues(source, "dropped").Add(float64(dropped))
}

// ObserveNewRecord counts one record that survived reconciliation.
func ObserveNewRecord(city string) {
	Init()
	newRecordsTotal.WithLabelValues(city).Inc()
}

// ObserveGeocode records one geocoding lookup.
func ObserveGeocode(status string, duration time.Duration) {
	Init()
	geocodeTotal.WithLabelValues(status).Inc()
	geocodeDurationSeconds.Observe(duration.Seconds())
}

// ObservePublish records records handed to a transport.
func ObservePublish(transport, status string, count int) {
	Init()
	publishedTotal.WithLabelValues(transport, status).Add(float64(count))
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSecs.WithLabelValues(method, route).Observe(duration.Seconds())
}
