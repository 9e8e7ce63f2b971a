package page

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Decode converts body to text using enc. Bytes the codec cannot map are
// replaced with U+FFFD; only an unsupported encoding is an error.
func Decode(body []byte, enc crawler.Encoding) (string, error) {
	var decoder *encoding.Decoder
	switch enc {
	case crawler.EncodingUTF8, "":
		decoder = unicode.UTF8BOM.NewDecoder()
	case crawler.EncodingLatin1:
		decoder = charmap.ISO8859_1.NewDecoder()
	default:
		return "", fmt.Errorf("%w: unsupported encoding %q", crawler.ErrDecode, enc)
	}
	text, err := decoder.Bytes(body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", crawler.ErrDecode, enc, err)
	}
	return string(text), nil
}
