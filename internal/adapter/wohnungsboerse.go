package adapter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/extract"
)

// Wohnungsboerse extracts listings from wohnungsboerse.net. Numbers come from
// schema.org microdata rather than the visible text.
type Wohnungsboerse struct{}

// NewWohnungsboerse returns the Wohnungsbörse adapter.
func NewWohnungsboerse() *Wohnungsboerse { return &Wohnungsboerse{} }

// Name implements crawler.Adapter.
func (*Wohnungsboerse) Name() string { return "wohnungsboerse" }

// EntryPointSelector implements crawler.Adapter.
func (*Wohnungsboerse) EntryPointSelector() string {
	return ".search_result_entry[class*='estate_']"
}

// Extract implements crawler.Adapter.
func (*Wohnungsboerse) Extract(node *goquery.Selection) (crawler.PropertyData, error) {
	title, err := extract.RequireText(node, ".search_result_entry-headline")
	if err != nil {
		return crawler.PropertyData{}, field("title", err)
	}
	address, err := extract.RequireText(node, ".search_result_entry-subheadline")
	if err != nil {
		return crawler.PropertyData{}, field("address", err)
	}
	price, err := metaNumber(node, "div[itemprop^=priceSpecification] meta[itemprop^=price]")
	if err != nil {
		return crawler.PropertyData{}, field("price", err)
	}
	sqm, err := metaNumber(node, "div[itemprop^=floorSize] meta[itemprop^=value]")
	if err != nil {
		return crawler.PropertyData{}, field("squaremeters", err)
	}
	rooms, err := metaNumber(node, "div[itemprop^=numberOfRooms] meta[itemprop^=value]")
	if err != nil {
		return crawler.PropertyData{}, field("rooms", err)
	}
	link, err := extract.RequireChildAttribute(node, ".search_result_entry-headline a", "href")
	if err != nil {
		return crawler.PropertyData{}, field("externalid", err)
	}
	id := link[strings.LastIndex(link, "/")+1:]
	if id == "" {
		return crawler.PropertyData{}, field("externalid", fmt.Errorf("%w: link %q has no id", crawler.ErrIncomplete, link))
	}
	return crawler.PropertyData{
		Price:        price,
		SquareMeters: sqm,
		Rooms:        rooms,
		Title:        strings.TrimSpace(title),
		Address:      strings.TrimSpace(address),
		ExternalID:   id,
	}, nil
}

// metaNumber reads a microdata value. Microdata uses a decimal point, so the
// German parser is only the fallback for hand-formatted content.
func metaNumber(node *goquery.Selection, selector string) (float64, error) {
	content, err := extract.RequireChildAttribute(node, selector, "content")
	if err != nil {
		return 0, err
	}
	if value, err := strconv.ParseFloat(strings.TrimSpace(content), 64); err == nil {
		return value, nil
	}
	return extract.ParseLocaleNumber(content)
}
