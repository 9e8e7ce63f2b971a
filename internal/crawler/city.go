package crawler

import (
	"fmt"
	"strings"
)

// City identifies the market a target belongs to. Records are only ever
// compared within a single city.
type City string

// Known cities.
const (
	Munich     City = "Munich"
	Wuerzburg  City = "Wuerzburg"
	Augsburg   City = "Augsburg"
	Kempten    City = "Kempten"
	Lindenberg City = "Lindenberg"
)

var cityAliases = map[string]City{
	"munich":     Munich,
	"muenchen":   Munich,
	"münchen":    Munich,
	"wuerzburg":  Wuerzburg,
	"würzburg":   Wuerzburg,
	"augsburg":   Augsburg,
	"kempten":    Kempten,
	"lindenberg": Lindenberg,
}

var localNames = map[City]string{
	Munich:    "München",
	Wuerzburg: "Würzburg",
}

// LocalName returns the German spelling used on listing sites and by
// geocoders.
func (c City) LocalName() string {
	if name, ok := localNames[c]; ok {
		return name
	}
	return string(c)
}

// Cities lists every known city.
func Cities() []City {
	return []City{Munich, Wuerzburg, Augsburg, Kempten, Lindenberg}
}

// ParseCity resolves a configured city name, accepting German spellings.
func ParseCity(name string) (City, error) {
	city, ok := cityAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown city %q", name)
	}
	return city, nil
}
