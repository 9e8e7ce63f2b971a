package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// numberPattern matches German-formatted numbers such as "1.234,56".
var numberPattern = regexp.MustCompile(`\d+(\.\d{3})*(,\d+)?`)

// ParseLocaleNumber parses the first German-formatted number found in text.
// Grouping dots are dropped and the decimal comma becomes a decimal point.
func ParseLocaleNumber(text string) (float64, error) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("%w in %q", crawler.ErrNoNumberFound, text)
	}
	normalized := strings.ReplaceAll(strings.ReplaceAll(match, ".", ""), ",", ".")
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", crawler.ErrNoNumberFound, match, err)
	}
	return value, nil
}
