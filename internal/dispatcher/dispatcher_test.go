package dispatcher

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/adapter"
	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/extract"
	"github.com/JakeFAU/flat-crawler/internal/page"
	"github.com/JakeFAU/flat-crawler/internal/worker"
)

type fakeClock struct{}

func (fakeClock) Now() time.Time { return time.Unix(1700000000, 0) }

type mockAdapter struct{}

func (mockAdapter) Name() string               { return "mock" }
func (mockAdapter) EntryPointSelector() string { return ".listing" }
func (mockAdapter) Extract(node *goquery.Selection) (crawler.PropertyData, error) {
	title, err := extract.RequireText(node, ".title")
	if err != nil {
		return crawler.PropertyData{}, err
	}
	id, err := extract.RequireAttribute(node, "data-id")
	if err != nil {
		return crawler.PropertyData{}, err
	}
	return crawler.PropertyData{Title: title, ExternalID: id}, nil
}

// fakeFetcher serves a fixed body per URL and records concurrency.
type fakeFetcher struct {
	mu       sync.Mutex
	bodies   map[string]string
	inFlight int
	peak     int
	delay    time.Duration
}

func (f *fakeFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	f.mu.Lock()
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	body, ok := f.bodies[req.URL]
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	if !ok {
		return crawler.FetchResponse{StatusCode: http.StatusNotFound}, nil
	}
	return crawler.FetchResponse{URL: req.URL, StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func newDispatcher(t *testing.T, fetcher crawler.Fetcher, workers int) *Dispatcher {
	t.Helper()
	registry := adapter.NewRegistry()
	registry.MustRegister("mock", mockAdapter{})
	pipeline := page.NewPipeline(map[crawler.FetchMode]crawler.Fetcher{crawler.FetchHTTP: fetcher}, page.Config{Scheme: "http"}, zap.NewNop())

	pool := make([]*worker.Worker, workers)
	for i := range pool {
		pool[i] = worker.New(pipeline, registry, fakeClock{}, zap.NewNop())
	}
	d, err := New(pool, zap.NewNop())
	require.NoError(t, err)
	return d
}

func TestNewRequiresWorkers(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestRunMockTargetKeepsExtractableNode(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{bodies: map[string]string{
		"http://example.test/list": `<div class="listing" data-id="a"><h2 class="title">Altbau</h2></div>
<div class="listing"><h2 class="title">ohne Kennung</h2></div>`,
	}}
	d := newDispatcher(t, fetcher, 2)

	round := d.Run(context.Background(), []crawler.Target{{
		Host:     "example.test",
		Path:     "/list",
		City:     crawler.Munich,
		Encoding: crawler.EncodingUTF8,
		Adapter:  "mock",
	}})

	require.Equal(t, 1, round.Targets)
	require.Zero(t, round.FailedTargets)
	require.Equal(t, 1, round.DroppedNodes)
	require.Len(t, round.Records, 1)
	require.NotNil(t, round.Records[0].Data)
	require.Equal(t, "a", round.Records[0].Data.ExternalID)
}

func TestRunProcessesEveryTargetConcurrently(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{bodies: map[string]string{}, delay: 20 * time.Millisecond}
	var targets []crawler.Target
	for i := range 12 {
		path := fmt.Sprintf("/list/%d", i)
		fetcher.bodies["http://example.test"+path] = fmt.Sprintf(
			`<div class="listing" data-id="%d"><span class="title">Wohnung %d</span></div>`, i, i)
		targets = append(targets, crawler.Target{Host: "example.test", Path: path, City: crawler.Kempten, Adapter: "mock"})
	}
	targets = append(targets, crawler.Target{Host: "example.test", Path: "/missing", City: crawler.Kempten, Adapter: "mock"})

	d := newDispatcher(t, fetcher, 4)
	round := d.Run(context.Background(), targets)

	require.Equal(t, 13, round.Targets)
	require.Equal(t, 1, round.FailedTargets)
	require.Len(t, round.Records, 12)

	ids := make(map[string]bool)
	for _, r := range round.Records {
		ids[r.Data.ExternalID] = true
	}
	require.Len(t, ids, 12)
	require.Greater(t, fetcher.peak, 1)
	require.LessOrEqual(t, fetcher.peak, 4)
}

func TestRunWithNoTargets(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, &fakeFetcher{}, 3)
	round := d.Run(context.Background(), nil)
	require.Zero(t, round.Targets)
	require.Empty(t, round.Records)
}
