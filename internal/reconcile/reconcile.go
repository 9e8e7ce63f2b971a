// Package reconcile decides which records of a round are new. Two records
// describe the same listing when they share a city and either carry the same
// source and external id, or titles that are equal after normalization. The
// title rule deliberately ignores the source so a flat advertised on several
// portals is reported once.
package reconcile

import (
	"strings"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// NormalizeTitle lowercases s and keeps only ASCII letters and digits.
func NormalizeTitle(s string) string {
	lower := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Equivalent reports whether a and b describe the same listing. Records
// without data are never equivalent to anything.
func Equivalent(a, b crawler.Property) bool {
	if a.City != b.City || a.Data == nil || b.Data == nil {
		return false
	}
	if a.Source == b.Source && a.Data.ExternalID == b.Data.ExternalID {
		return true
	}
	return NormalizeTitle(a.Data.Title) == NormalizeTitle(b.Data.Title)
}

// Complete drops records whose extraction produced no data.
func Complete(records []crawler.Property) []crawler.Property {
	out := make([]crawler.Property, 0, len(records))
	for _, r := range records {
		if r.Complete() {
			out = append(out, r)
		}
	}
	return out
}

// NewRecords returns the complete records of current that have no
// equivalent in previous.
func NewRecords(current, previous []crawler.Property) []crawler.Property {
	seen := newIndex(len(previous))
	for _, p := range previous {
		seen.add(p)
	}
	var out []crawler.Property
	for _, c := range current {
		if c.Complete() && !seen.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// Unique keeps the first record of every group of equivalent records.
func Unique(records []crawler.Property) []crawler.Property {
	kept := newIndex(len(records))
	var out []crawler.Property
	for _, r := range records {
		if !r.Complete() || kept.matches(r) {
			continue
		}
		kept.add(r)
		out = append(out, r)
	}
	return out
}

// Reconcile is the per-round filter: complete records of current that are
// neither equivalent to a record of previous nor to an earlier record of
// current.
func Reconcile(current, previous []crawler.Property) []crawler.Property {
	return Unique(NewRecords(current, previous))
}

type identity struct {
	city       crawler.City
	source     string
	externalID string
}

type titleKey struct {
	city  crawler.City
	title string
}

// index answers "is there an equivalent record" in constant time. It holds
// the two arms of Equivalent as separate sets.
type index struct {
	ids    map[identity]struct{}
	titles map[titleKey]struct{}
}

func newIndex(size int) *index {
	return &index{
		ids:    make(map[identity]struct{}, size),
		titles: make(map[titleKey]struct{}, size),
	}
}

func (x *index) add(p crawler.Property) {
	if p.Data == nil {
		return
	}
	x.ids[identity{p.City, p.Source, p.Data.ExternalID}] = struct{}{}
	x.titles[titleKey{p.City, NormalizeTitle(p.Data.Title)}] = struct{}{}
}

func (x *index) matches(p crawler.Property) bool {
	if p.Data == nil {
		return false
	}
	if _, ok := x.ids[identity{p.City, p.Source, p.Data.ExternalID}]; ok {
		return true
	}
	_, ok := x.titles[titleKey{p.City, NormalizeTitle(p.Data.Title)}]
	return ok
}
