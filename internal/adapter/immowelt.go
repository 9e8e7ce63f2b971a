package adapter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/extract"
)

// Immowelt extracts listings from immowelt.de result lists.
type Immowelt struct{}

// NewImmowelt returns the immowelt.de adapter.
func NewImmowelt() *Immowelt { return &Immowelt{} }

// Name implements crawler.Adapter.
func (*Immowelt) Name() string { return "immowelt" }

// EntryPointSelector implements crawler.Adapter.
func (*Immowelt) EntryPointSelector() string { return ".js-object[data-estateid]" }

// Extract implements crawler.Adapter.
func (*Immowelt) Extract(node *goquery.Selection) (crawler.PropertyData, error) {
	price, err := numberAt(node, ".hardfacts_3 .hardfact:nth-child(1) strong")
	if err != nil {
		return crawler.PropertyData{}, field("price", err)
	}
	sqm, err := numberAt(node, ".hardfacts_3 .hardfact:nth-child(2)")
	if err != nil {
		return crawler.PropertyData{}, field("squaremeters", err)
	}
	rooms, err := numberAt(node, ".hardfacts_3 .hardfact:nth-child(3)")
	if err != nil {
		return crawler.PropertyData{}, field("rooms", err)
	}
	title, err := extract.RequireText(node, ".listcontent h2")
	if err != nil {
		return crawler.PropertyData{}, field("title", err)
	}
	location, err := extract.RequireText(node, ".listlocation")
	if err != nil {
		return crawler.PropertyData{}, field("address", err)
	}
	id, err := extract.RequireAttribute(node, "data-estateid")
	if err != nil {
		return crawler.PropertyData{}, field("externalid", err)
	}
	return crawler.PropertyData{
		Price:        price,
		SquareMeters: sqm,
		Rooms:        rooms,
		Title:        strings.TrimSpace(title),
		Address:      removeBrackets(joinLines(location, ", ")),
		ExternalID:   id,
	}, nil
}
