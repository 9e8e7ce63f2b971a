package adapter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/flat-crawler/internal/extract"
)

var bracketPattern = regexp.MustCompile(`\s*\([^)]*\)`)

// removeBrackets drops parenthesized fragments such as "(Kreis)" from an address.
func removeBrackets(s string) string {
	return bracketPattern.ReplaceAllString(s, "")
}

// joinLines trims every line of s, drops empty ones and joins the rest.
func joinLines(s, sep string) string {
	var parts []string
	for line := range strings.SplitSeq(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, sep)
}

// collapse removes tabs and newlines and trims the result.
func collapse(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\t", "", "\n", "", "\r", "").Replace(s))
}

// field wraps a field-level failure with the field name.
func field(name string, err error) error {
	return fmt.Errorf("%s: %w", name, err)
}

// numberAt parses the locale number in the text of the first match of selector.
func numberAt(node *goquery.Selection, selector string) (float64, error) {
	text, err := extract.RequireText(node, selector)
	if err != nil {
		return 0, err
	}
	return extract.ParseLocaleNumber(text)
}
