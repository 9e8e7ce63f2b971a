package crawler

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Encoding names the character set a target serves its pages in.
type Encoding string

// Supported page encodings.
const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingLatin1 Encoding = "latin1"
)

// ParseEncoding maps a configured encoding label onto a supported Encoding.
// An empty label means UTF-8.
func ParseEncoding(label string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf8", "utf-8":
		return EncodingUTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", label)
	}
}

// FetchMode selects which fetcher retrieves a target.
type FetchMode string

// Fetch modes.
const (
	FetchHTTP     FetchMode = "http"
	FetchHeadless FetchMode = "headless"
)

// Target is one listing page scheduled once per round.
type Target struct {
	Host     string    `json:"host"`
	Path     string    `json:"path"`
	City     City      `json:"city"`
	Encoding Encoding  `json:"encoding"`
	Adapter  string    `json:"adapter"`
	Fetch    FetchMode `json:"fetch"`
}

// URL joins the scheme with the target's host and path.
func (t Target) URL(scheme string) string {
	return scheme + "://" + t.Host + t.Path
}

// PropertyData is the typed payload an adapter extracts from one candidate node.
type PropertyData struct {
	Price        float64
	SquareMeters float64
	Rooms        float64
	Address      string
	Title        string
	ExternalID   string
}

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// BoundingBox is the extent a geocoder reports around a match.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Corners returns the south-west and north-east corners of the box.
func (b BoundingBox) Corners() (Coordinate, Coordinate) {
	return Coordinate{Latitude: b.MinLat, Longitude: b.MinLon},
		Coordinate{Latitude: b.MaxLat, Longitude: b.MaxLon}
}

// Place is the first ranked match returned by a Geocoder.
type Place struct {
	Coordinate
	Box BoundingBox
}

// Location is attached to a property after successful geocoding.
type Location struct {
	Latitude          float64
	Longitude         float64
	UncertaintyMeters float64
}

// Property is one listing record. Values are never mutated after creation;
// WithData and WithLocation return updated copies.
type Property struct {
	Source     string
	City       City
	CapturedAt time.Time
	Data       *PropertyData
	Location   *Location
}

// NewProperty creates the skeleton record for a target that has begun processing.
func NewProperty(source string, city City, capturedAt time.Time) Property {
	return Property{Source: source, City: city, CapturedAt: capturedAt}
}

// WithData returns a copy of p carrying the extracted data.
func (p Property) WithData(data PropertyData) Property {
	p.Data = &data
	return p
}

// WithLocation returns a copy of p carrying a geocoded location.
func (p Property) WithLocation(loc Location) Property {
	p.Location = &loc
	return p
}

// Complete reports whether the record carries extracted data.
func (p Property) Complete() bool {
	return p.Data != nil
}

// Key returns the document key "{source}-{externalid}".
func (p Property) Key() (string, error) {
	if p.Data == nil {
		return "", fmt.Errorf("%w: %s record in %s has no data", ErrIncomplete, p.Source, p.City)
	}
	return p.Source + "-" + p.Data.ExternalID, nil
}

// FetchRequest captures everything needed to fetch a target URL.
type FetchRequest struct {
	URL     string
	Source  string
	Headers http.Header
	// WaitFor is the entry-point selector; renderers wait for it to appear.
	WaitFor string
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	ContentType  string
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}
