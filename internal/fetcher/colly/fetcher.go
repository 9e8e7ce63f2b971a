// Package collyfetcher implements Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

const (
	defaultTimeout = 30 * time.Second
	// maxBodyBytes caps a listing page; result pages are well below this.
	maxBodyBytes = 8 << 20
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Limiter delays requests to keep per-host politeness.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Fetcher implements crawler.Fetcher using the Colly collector. Bodies are
// returned exactly as received; decoding is left to the caller.
type Fetcher struct {
	cfg     Config
	base    *colly.Collector
	limiter Limiter
	logger  *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponseHeaders(colly.ResponseHeadersCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. limiter may be nil.
func New(cfg Config, limiter Limiter, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	// Every round revisits the same listing pages.
	base := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.MaxBodySize(maxBodyBytes),
	)
	// Clones share the backend http.Client, so it is only configured here.
	base.WithTransport(newHTTPTransport())
	base.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:     cfg,
		base:    base,
		limiter: limiter,
		logger:  logger.Named("colly"),
	}
}

// Fetch executes a single HTTP GET. Non-2xx replies and transport failures
// are returned as errors.
func (f *Fetcher) Fetch(ctx context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, request.URL); err != nil {
			return crawler.FetchResponse{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	v := &visit{request: request, start: time.Now()}
	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	v.attach(collector)

	if err := v.run(ctx, collector); err != nil {
		return crawler.FetchResponse{}, err
	}
	f.logger.Debug("fetched",
		zap.String("source", request.Source),
		zap.String("url", v.resp.URL),
		zap.Int("status", v.resp.StatusCode),
		zap.Int("bytes", len(v.resp.Body)),
		zap.String("content_type", v.resp.ContentType),
	)
	return v.resp, nil
}

// visit collects what the collector callbacks report for one request.
type visit struct {
	request     crawler.FetchRequest
	start       time.Time
	contentType string
	resp        crawler.FetchResponse
	err         error
}

func (v *visit) attach(hooks collectorHooks) {
	hooks.OnRequest(func(r *colly.Request) {
		copyHeaders(v.request.Headers, r)
	})

	// Colly transcodes bodies whose Content-Type names a charset. Targets
	// declare their own encoding, so the charset parameter is dropped before
	// the body is read and the original header is kept on the result.
	hooks.OnResponseHeaders(func(r *colly.Response) {
		v.contentType = r.Headers.Get("Content-Type")
		if stripped, ok := stripCharset(v.contentType); ok {
			r.Headers.Set("Content-Type", stripped)
		}
	})

	hooks.OnResponse(func(r *colly.Response) {
		headers := r.Headers.Clone()
		if v.contentType != "" {
			headers.Set("Content-Type", v.contentType)
		}
		v.resp = crawler.FetchResponse{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			Headers:     headers,
			ContentType: v.contentType,
			Body:        append([]byte(nil), r.Body...),
			Duration:    time.Since(v.start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			v.err = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		v.err = err
	})
}

// run visits the URL, returning early when ctx ends. Colly has no context
// support, so an abandoned request finishes on its own timeout.
func (v *visit) run(ctx context.Context, collector *colly.Collector) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(v.request.URL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if v.err != nil {
			return fmt.Errorf("colly response failed: %w", v.err)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func copyHeaders(headers http.Header, r *colly.Request) {
	for key, values := range headers {
		for _, value := range values {
			r.Headers.Add(key, value)
		}
	}
}

// stripCharset removes the charset parameter from a Content-Type value.
func stripCharset(contentType string) (string, bool) {
	if contentType == "" {
		return "", false
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	if _, ok := params["charset"]; !ok {
		return "", false
	}
	delete(params, "charset")
	return mime.FormatMediaType(mediaType, params), true
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
