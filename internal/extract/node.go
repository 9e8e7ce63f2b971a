package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Compile parses a CSS selector, reporting malformed input as
// crawler.ErrInvalidSelector.
func Compile(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", crawler.ErrInvalidSelector, selector, err)
	}
	return sel, nil
}

// First returns the first descendant of node matching selector.
func First(node *goquery.Selection, selector string) (*goquery.Selection, error) {
	sel, err := Compile(selector)
	if err != nil {
		return nil, err
	}
	match := node.FindMatcher(sel).First()
	if match.Length() == 0 {
		return nil, fmt.Errorf("%w: %q", crawler.ErrSelectorNotFound, selector)
	}
	return match, nil
}

// RequireText returns the concatenated text of the first descendant matching
// selector. The text is returned as-is; adapters trim what they need.
func RequireText(node *goquery.Selection, selector string) (string, error) {
	match, err := First(node, selector)
	if err != nil {
		return "", err
	}
	return match.Text(), nil
}

// RequireAttribute returns the named attribute of node itself.
func RequireAttribute(node *goquery.Selection, name string) (string, error) {
	value, ok := node.Attr(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", crawler.ErrAttributeMissing, name)
	}
	return value, nil
}

// RequireChildAttribute returns the named attribute of the first descendant
// matching selector.
func RequireChildAttribute(node *goquery.Selection, selector, name string) (string, error) {
	match, err := First(node, selector)
	if err != nil {
		return "", err
	}
	return RequireAttribute(match, name)
}
