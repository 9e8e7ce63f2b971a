package page

import (
	"fmt"
	"iter"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/extract"
)

// Parse builds a navigable document from decoded page text.
func Parse(text string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", crawler.ErrDecode, err)
	}
	return doc, nil
}

// Select applies an entry-point selector and yields the matches in document
// order. A selector that matches nothing is a target-level failure.
func Select(doc *goquery.Document, selector string) (iter.Seq[*goquery.Selection], int, error) {
	matcher, err := extract.Compile(selector)
	if err != nil {
		return nil, 0, err
	}
	matches := doc.FindMatcher(matcher)
	count := matches.Length()
	if count == 0 {
		return nil, 0, fmt.Errorf("%w: entry point %q", crawler.ErrSelectorNotFound, selector)
	}
	return func(yield func(*goquery.Selection) bool) {
		for i := range count {
			if !yield(matches.Eq(i)) {
				return
			}
		}
	}, count, nil
}
