package page

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

type fakeFetcher struct {
	resp     crawler.FetchResponse
	err      error
	lastURL  string
	requests int
}

func (f *fakeFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	f.lastURL = req.URL
	f.requests++
	return f.resp, f.err
}

func TestDecodeLatin1(t *testing.T) {
	t.Parallel()

	text, err := Decode([]byte{'M', 0xFC, 'n', 'c', 'h', 'e', 'n'}, crawler.EncodingLatin1)
	require.NoError(t, err)
	require.Equal(t, "München", text)
}

func TestDecodeInvalidUTF8IsLossy(t *testing.T) {
	t.Parallel()

	text, err := Decode([]byte{'a', 0xFF, 'b'}, crawler.EncodingUTF8)
	require.NoError(t, err)
	require.Equal(t, "a\uFFFDb", text)
}

func TestDecodeStripsBOM(t *testing.T) {
	t.Parallel()

	text, err := Decode([]byte("\xEF\xBB\xBFhallo"), crawler.EncodingUTF8)
	require.NoError(t, err)
	require.Equal(t, "hallo", text)
}

func TestDecodeUnsupportedEncoding(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("x"), crawler.Encoding("ebcdic"))
	require.ErrorIs(t, err, crawler.ErrDecode)
}

func TestSelect(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<ul><li class="hit">a</li><li>b</li><li class="hit">c</li></ul>`)
	require.NoError(t, err)

	nodes, count, err := Select(doc, "li.hit")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	var texts []string
	for node := range nodes {
		texts = append(texts, node.Text())
	}
	require.Equal(t, []string{"a", "c"}, texts)
}

func TestSelectNoMatch(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<p>nothing</p>`)
	require.NoError(t, err)

	_, _, err = Select(doc, ".result")
	require.ErrorIs(t, err, crawler.ErrSelectorNotFound)

	_, _, err = Select(doc, "div[")
	require.ErrorIs(t, err, crawler.ErrInvalidSelector)
}

func TestPipelineLoad(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{resp: crawler.FetchResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`<div class="hit">W` + "\xfc" + `rzburg</div>`),
	}}
	p := NewPipeline(map[crawler.FetchMode]crawler.Fetcher{crawler.FetchHTTP: fetcher}, Config{Scheme: "http"}, zap.NewNop())

	got, err := p.Load(context.Background(), crawler.Target{
		Host:     "example.test",
		Path:     "/list",
		Encoding: crawler.EncodingLatin1,
	}, ".hit")
	require.NoError(t, err)
	require.Equal(t, "http://example.test/list", fetcher.lastURL)
	require.Equal(t, 1, got.Count)

	var nodes []*goquery.Selection
	for node := range got.Nodes {
		nodes = append(nodes, node)
	}
	require.Len(t, nodes, 1)
	require.Equal(t, "Würzburg", nodes[0].Text())
}

func TestPipelineLoadFailures(t *testing.T) {
	t.Parallel()

	target := crawler.Target{Host: "example.test", Path: "/list"}

	failing := &fakeFetcher{err: errors.New("connection refused")}
	p := NewPipeline(map[crawler.FetchMode]crawler.Fetcher{crawler.FetchHTTP: failing}, Config{}, nil)
	_, err := p.Load(context.Background(), target, ".hit")
	require.ErrorIs(t, err, crawler.ErrRequest)
	require.Equal(t, "https://example.test/list", failing.lastURL)

	notFound := &fakeFetcher{resp: crawler.FetchResponse{StatusCode: http.StatusNotFound}}
	p = NewPipeline(map[crawler.FetchMode]crawler.Fetcher{crawler.FetchHTTP: notFound}, Config{}, nil)
	_, err = p.Load(context.Background(), target, ".hit")
	require.ErrorIs(t, err, crawler.ErrRequest)

	empty := &fakeFetcher{resp: crawler.FetchResponse{StatusCode: http.StatusOK, Body: []byte("<p></p>")}}
	p = NewPipeline(map[crawler.FetchMode]crawler.Fetcher{crawler.FetchHTTP: empty}, Config{}, nil)
	_, err = p.Load(context.Background(), target, ".hit")
	require.ErrorIs(t, err, crawler.ErrSelectorNotFound)

	headless := crawler.Target{Host: "example.test", Fetch: crawler.FetchHeadless}
	_, err = p.Load(context.Background(), headless, ".hit")
	require.ErrorIs(t, err, crawler.ErrRequest)
	require.Equal(t, 1, empty.requests)
}
