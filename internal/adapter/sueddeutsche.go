package adapter

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/extract"
)

// Sueddeutsche extracts listings from the Süddeutsche Zeitung property market.
// Its pages are served as Latin-1.
type Sueddeutsche struct{}

// NewSueddeutsche returns the Süddeutsche Immobilienmarkt adapter.
func NewSueddeutsche() *Sueddeutsche { return &Sueddeutsche{} }

// Name implements crawler.Adapter.
func (*Sueddeutsche) Name() string { return "sueddeutsche" }

// EntryPointSelector implements crawler.Adapter.
func (*Sueddeutsche) EntryPointSelector() string { return "#idHitContent .hitRow" }

// Extract implements crawler.Adapter.
func (*Sueddeutsche) Extract(node *goquery.Selection) (crawler.PropertyData, error) {
	// ".hitRoomsDiv" reads "72 m², 3 Zimmer".
	facts, err := extract.RequireText(node, ".hitRoomsDiv")
	if err != nil {
		return crawler.PropertyData{}, field("squaremeters", err)
	}
	factParts := strings.Split(facts, ", ")

	// The third line of ".hitRegionTxt" carries the address.
	region, err := extract.RequireText(node, ".hitRegionTxt")
	if err != nil {
		return crawler.PropertyData{}, field("address", err)
	}
	regionLines := strings.Split(strings.ReplaceAll(region, "\t", ""), "\n")

	if len(factParts) < 2 || len(regionLines) < 3 {
		return crawler.PropertyData{}, fmt.Errorf("%w: facts %q, region %q", crawler.ErrIncomplete, facts, region)
	}

	title, err := extract.RequireText(node, ".hitHeadline")
	if err != nil {
		return crawler.PropertyData{}, field("title", err)
	}
	priceText, err := extract.RequireText(node, ".hitPrice")
	if err != nil {
		return crawler.PropertyData{}, field("price", err)
	}
	rawID, err := extract.RequireAttribute(node, "id")
	if err != nil {
		return crawler.PropertyData{}, field("externalid", err)
	}

	price, err := extract.ParseLocaleNumber(strings.ReplaceAll(priceText, "\u00a0", " "))
	if err != nil {
		return crawler.PropertyData{}, field("price", err)
	}
	sqm, err := extract.ParseLocaleNumber(factParts[0])
	if err != nil {
		return crawler.PropertyData{}, field("squaremeters", err)
	}
	rooms, err := extract.ParseLocaleNumber(factParts[1])
	if err != nil {
		return crawler.PropertyData{}, field("rooms", err)
	}
	return crawler.PropertyData{
		Price:        price,
		SquareMeters: sqm,
		Rooms:        rooms,
		Title:        collapse(title),
		Address:      strings.TrimSpace(removeBrackets(regionLines[2])),
		ExternalID:   strings.ReplaceAll(rawID, "idHitRowList", ""),
	}, nil
}
