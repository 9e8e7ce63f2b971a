package page

import (
	"context"
	"fmt"
	"iter"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Config controls how target URLs are built.
type Config struct {
	Scheme string
}

// Candidates are the entry-point matches of one fetched page.
type Candidates struct {
	URL   string
	Bytes int
	Count int
	Nodes iter.Seq[*goquery.Selection]
}

// Pipeline runs fetch, decode, parse and select for a single target.
type Pipeline struct {
	fetchers map[crawler.FetchMode]crawler.Fetcher
	scheme   string
	logger   *zap.Logger
}

// NewPipeline wires the fetchers available per fetch mode.
func NewPipeline(fetchers map[crawler.FetchMode]crawler.Fetcher, cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return &Pipeline{
		fetchers: fetchers,
		scheme:   scheme,
		logger:   logger.Named("page"),
	}
}

// Load fetches target and returns the nodes matching selector.
func (p *Pipeline) Load(ctx context.Context, target crawler.Target, selector string) (Candidates, error) {
	mode := target.Fetch
	if mode == "" {
		mode = crawler.FetchHTTP
	}
	fetcher, ok := p.fetchers[mode]
	if !ok {
		return Candidates{}, fmt.Errorf("%w: no fetcher for mode %q", crawler.ErrRequest, mode)
	}

	url := target.URL(p.scheme)
	resp, err := fetcher.Fetch(ctx, crawler.FetchRequest{URL: url, Source: target.Adapter, WaitFor: selector})
	if err != nil {
		return Candidates{}, fmt.Errorf("%w: %s: %v", crawler.ErrRequest, url, err)
	}
	if resp.StatusCode != 0 && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return Candidates{}, fmt.Errorf("%w: %s: status %d", crawler.ErrRequest, url, resp.StatusCode)
	}

	encoding := target.Encoding
	if resp.UsedHeadless {
		// Rendered DOMs are serialized by the browser as UTF-8.
		encoding = crawler.EncodingUTF8
	}
	text, err := Decode(resp.Body, encoding)
	if err != nil {
		return Candidates{}, err
	}
	doc, err := Parse(text)
	if err != nil {
		return Candidates{}, err
	}
	nodes, count, err := Select(doc, selector)
	if err != nil {
		return Candidates{}, err
	}

	p.logger.Debug("page loaded",
		zap.String("url", url),
		zap.Int("bytes", len(resp.Body)),
		zap.Int("candidates", count),
		zap.Duration("duration", resp.Duration),
	)
	return Candidates{URL: url, Bytes: len(resp.Body), Count: count, Nodes: nodes}, nil
}
