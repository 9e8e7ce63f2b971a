// Package headless contains fetchers that render listing pages in a browser
// for sites that build their result lists with JavaScript.
package headless

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

const (
	defaultNavigationTimeout = 45 * time.Second
	defaultSettleTimeout     = 5 * time.Second
)

// Config controls the behavior of the headless fetcher.
type Config struct {
	// MaxParallel caps concurrent browser tabs. Zero means no cap.
	MaxParallel       int
	UserAgent         string
	NavigationTimeout time.Duration
	// SettleTimeout bounds the wait for the listing selector after the body
	// is ready. Pages that never render a match are still returned.
	SettleTimeout time.Duration
}

// Limiter delays navigations to keep per-host politeness.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Fetcher implements crawler.Fetcher using chromedp and headless Chrome.
// The rendered DOM is always returned as UTF-8.
type Fetcher struct {
	cfg         Config
	tabs        *semaphore.Weighted
	limiter     Limiter
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

// New prepares a browser allocator. Chrome itself starts on the first Fetch.
func New(cfg Config, limiter Limiter, logger *zap.Logger) (*Fetcher, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = defaultSettleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var tabs *semaphore.Weighted
	if cfg.MaxParallel > 0 {
		tabs = semaphore.NewWeighted(int64(cfg.MaxParallel))
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		tabs:        tabs,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger.Named("headless"),
	}, nil
}

// Close shuts the browser down.
func (f *Fetcher) Close() error {
	f.allocCancel()
	return nil
}

// Fetch renders request.URL and returns the DOM once the listing selector
// has appeared or the settle timeout ran out. The status of the main
// document is reported so callers can reject non-2xx pages.
func (f *Fetcher) Fetch(ctx context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	if err := f.acquire(ctx); err != nil {
		return crawler.FetchResponse{}, err
	}
	defer f.release()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, request.URL); err != nil {
			return crawler.FetchResponse{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	tabCtx, closeTab := chromedp.NewContext(f.allocator)
	defer closeTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, f.navTimeout())
	defer cancel()
	// The tab lives under the allocator, so tie it to the caller by hand.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	doc := &document{}
	chromedp.ListenTarget(tabCtx, doc.observe)

	start := time.Now()
	html, location, err := f.render(tabCtx, request)
	if err != nil {
		return crawler.FetchResponse{}, fmt.Errorf("render %s: %w", request.URL, err)
	}

	status, headers, finalURL := doc.resolve(request.URL, location)
	f.logger.Debug("rendered",
		zap.String("source", request.Source),
		zap.String("url", finalURL),
		zap.Int("bytes", len(html)),
	)

	return crawler.FetchResponse{
		URL:          finalURL,
		StatusCode:   status,
		Headers:      headers,
		ContentType:  "text/html; charset=utf-8",
		Body:         []byte(html),
		Duration:     time.Since(start),
		UsedHeadless: true,
	}, nil
}

func (f *Fetcher) render(ctx context.Context, request crawler.FetchRequest) (html, location string, err error) {
	err = chromedp.Run(ctx,
		f.prepareTab(request.Headers),
		chromedp.Navigate(request.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		f.settle(request.WaitFor),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, location, err
}

// settle waits for selector to show up, giving up quietly after the settle
// timeout so the entry-point check can report the miss.
func (f *Fetcher) settle(selector string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if selector == "" {
			return chromedp.Sleep(500 * time.Millisecond).Do(ctx)
		}
		waitCtx, cancel := context.WithTimeout(ctx, f.cfg.SettleTimeout)
		defer cancel()
		err := chromedp.WaitReady(selector, chromedp.ByQuery).Do(waitCtx)
		if err != nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			f.logger.Debug("listing selector did not render", zap.String("selector", selector))
			return nil
		}
		return err
	})
}

func (f *Fetcher) prepareTab(headers http.Header) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if f.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		if len(headers) == 0 {
			return nil
		}
		if err := network.SetExtraHTTPHeaders(toNetworkHeaders(headers)).Do(ctx); err != nil {
			return fmt.Errorf("set extra headers: %w", err)
		}
		return nil
	})
}

func (f *Fetcher) acquire(ctx context.Context) error {
	if f.tabs == nil {
		return nil
	}
	if err := f.tabs.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("headless tab wait canceled: %w", err)
	}
	return nil
}

func (f *Fetcher) release() {
	if f.tabs != nil {
		f.tabs.Release(1)
	}
}

func (f *Fetcher) navTimeout() time.Duration {
	if f.cfg.NavigationTimeout > 0 {
		return f.cfg.NavigationTimeout
	}
	return defaultNavigationTimeout
}

// document remembers the response of the page's main document; images,
// scripts and XHRs are ignored.
type document struct {
	mu      sync.Mutex
	seen    bool
	status  int
	headers http.Header
	url     string
}

func (d *document) observe(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	headers := flattenHeaders(resp.Response.Headers)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = true
	d.status = int(resp.Response.Status)
	d.headers = headers
	d.url = resp.Response.URL
}

// resolve prefers the document response, then the final location, then the
// requested URL. A page without an observed document response counts as 200.
func (d *document) resolve(requestURL, location string) (int, http.Header, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen && d.url != "" {
		status := d.status
		if status == 0 {
			status = http.StatusOK
		}
		return status, d.headers.Clone(), d.url
	}
	if location != "" {
		return http.StatusOK, http.Header{}, location
	}
	return http.StatusOK, http.Header{}, requestURL
}

func flattenHeaders(in network.Headers) http.Header {
	out := http.Header{}
	for key, value := range in {
		switch v := value.(type) {
		case string:
			out.Add(key, v)
		case []any:
			for _, entry := range v {
				out.Add(key, fmt.Sprint(entry))
			}
		default:
			out.Add(key, fmt.Sprint(v))
		}
	}
	return out
}

func toNetworkHeaders(h http.Header) network.Headers {
	headers := network.Headers{}
	for key, values := range h {
		switch len(values) {
		case 0:
		case 1:
			headers[key] = values[0]
		default:
			headers[key] = append([]string(nil), values...)
		}
	}
	return headers
}
