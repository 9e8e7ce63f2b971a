package adapter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/extract"
)

// ImmoScout extracts listings from ImmobilienScout24 result lists. Rent and
// purchase lists share one layout, so one adapter serves both; the first
// criterion is the rent or the purchase price respectively.
type ImmoScout struct{}

// NewImmoScout returns the ImmobilienScout24 adapter.
func NewImmoScout() *ImmoScout {
	return &ImmoScout{}
}

// Name implements crawler.Adapter.
func (*ImmoScout) Name() string { return "immoscout" }

// EntryPointSelector implements crawler.Adapter.
func (*ImmoScout) EntryPointSelector() string { return "article[data-item=result]" }

// Extract implements crawler.Adapter.
func (*ImmoScout) Extract(node *goquery.Selection) (crawler.PropertyData, error) {
	price, err := numberAt(node, ".result-list-entry__criteria dl:nth-child(1) dd")
	if err != nil {
		return crawler.PropertyData{}, field("price", err)
	}
	sqm, err := numberAt(node, ".result-list-entry__criteria dl:nth-child(2) dd")
	if err != nil {
		return crawler.PropertyData{}, field("squaremeters", err)
	}
	rooms, err := numberAt(node, ".result-list-entry__criteria dl:nth-child(3) dd .onlyLarge")
	if err != nil {
		return crawler.PropertyData{}, field("rooms", err)
	}
	title, err := extract.RequireText(node, ".result-list-entry__brand-title")
	if err != nil {
		return crawler.PropertyData{}, field("title", err)
	}
	address, err := extract.RequireText(node, ".result-list-entry__map-link div")
	if err != nil {
		return crawler.PropertyData{}, field("address", err)
	}
	id, err := extract.RequireAttribute(node, "data-obid")
	if err != nil {
		return crawler.PropertyData{}, field("externalid", err)
	}
	return crawler.PropertyData{
		Price:        price,
		SquareMeters: sqm,
		Rooms:        rooms,
		Title:        strings.TrimSpace(title),
		Address:      strings.TrimSpace(address),
		ExternalID:   strings.TrimSpace(id),
	}, nil
}
