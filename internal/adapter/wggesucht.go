package adapter

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/extract"
)

// WGGesuchtTitle is the title given to every WG-Gesucht flat. Result rows
// carry no headline.
const WGGesuchtTitle = "Wohnung auf WG Gesucht"

// ErrTemporary marks WG-Gesucht flats that are only let for a limited time.
var ErrTemporary = fmt.Errorf("%w: only available for a limited time", crawler.ErrIncomplete)

// WGGesucht extracts flats from wg-gesucht.de result tables.
type WGGesucht struct{}

// NewWGGesucht returns the WG-Gesucht adapter.
func NewWGGesucht() *WGGesucht { return &WGGesucht{} }

// Name implements crawler.Adapter.
func (*WGGesucht) Name() string { return "wggesucht" }

// EntryPointSelector implements crawler.Adapter.
func (*WGGesucht) EntryPointSelector() string { return "tr[adid^=wohnungen]" }

// Extract implements crawler.Adapter.
func (*WGGesucht) Extract(node *goquery.Selection) (crawler.PropertyData, error) {
	until, err := extract.RequireText(node, ".ang_spalte_freibis")
	if err != nil {
		return crawler.PropertyData{}, field("available_until", err)
	}
	if strings.TrimSpace(until) != "" {
		return crawler.PropertyData{}, ErrTemporary
	}

	price, err := numberAt(node, ".ang_spalte_miete")
	if err != nil {
		return crawler.PropertyData{}, field("price", err)
	}
	sqm, err := numberAt(node, ".ang_spalte_groesse")
	if err != nil {
		return crawler.PropertyData{}, field("squaremeters", err)
	}
	rooms, err := numberAt(node, ".ang_spalte_zimmer")
	if err != nil {
		return crawler.PropertyData{}, field("rooms", err)
	}
	district, err := extract.RequireText(node, ".ang_spalte_stadt")
	if err != nil {
		return crawler.PropertyData{}, field("address", err)
	}
	id, err := extract.RequireAttribute(node, "adid")
	if err != nil {
		return crawler.PropertyData{}, field("externalid", err)
	}
	return crawler.PropertyData{
		Price:        price,
		SquareMeters: sqm,
		Rooms:        rooms,
		Title:        WGGesuchtTitle,
		Address:      collapse(district),
		ExternalID:   id,
	}, nil
}
