package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/page"
)

type extraction struct {
	data []crawler.PropertyData
	errs []error
}

func extractFixture(t *testing.T, a crawler.Adapter, fixture string) extraction {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", fixture))
	require.NoError(t, err)
	doc, err := page.Parse(string(raw))
	require.NoError(t, err)
	nodes, _, err := page.Select(doc, a.EntryPointSelector())
	require.NoError(t, err)

	var out extraction
	for node := range nodes {
		data, err := a.Extract(node)
		if err != nil {
			out.errs = append(out.errs, err)
			continue
		}
		out.data = append(out.data, data)
	}
	return out
}

func TestImmoScout(t *testing.T) {
	t.Parallel()

	got := extractFixture(t, NewImmoScout(), "immoscout.html")
	require.Equal(t, []crawler.PropertyData{{
		Price:        1450,
		SquareMeters: 78.5,
		Rooms:        3,
		Address:      "Schwabing, München",
		Title:        "Schöne 3-Zimmer-Wohnung in Schwabing",
		ExternalID:   "115000001",
	}}, got.data)
	require.Len(t, got.errs, 1)
	require.ErrorIs(t, got.errs[0], crawler.ErrSelectorNotFound)
	require.ErrorContains(t, got.errs[0], "rooms")
}

func TestImmoScoutHousesSharesAdapter(t *testing.T) {
	t.Parallel()

	r := Default()
	rent, err := r.Lookup(IDImmoScout)
	require.NoError(t, err)
	houses, err := r.Lookup(IDImmoScoutHouses)
	require.NoError(t, err)

	require.Same(t, rent, houses)
	require.Equal(t, "immoscout", houses.Name())
}

func TestImmowelt(t *testing.T) {
	t.Parallel()

	got := extractFixture(t, NewImmowelt(), "immowelt.html")
	require.Equal(t, []crawler.PropertyData{{
		Price:        980,
		SquareMeters: 65.2,
		Rooms:        2,
		Address:      "Augsburg, Maximilianstraße 12",
		Title:        "Altbau mit Balkon",
		ExternalID:   "2ab3c",
	}}, got.data)
	require.Len(t, got.errs, 1)
	require.ErrorIs(t, got.errs[0], crawler.ErrNoNumberFound)
}

func TestSueddeutsche(t *testing.T) {
	t.Parallel()

	got := extractFixture(t, NewSueddeutsche(), "sueddeutsche.html")
	require.Equal(t, []crawler.PropertyData{{
		Price:        1100,
		SquareMeters: 55,
		Rooms:        2,
		Address:      "Sendling",
		Title:        "Ruhige Wohnung nahe Westpark",
		ExternalID:   "4711",
	}}, got.data)
	require.Len(t, got.errs, 1)
	require.ErrorIs(t, got.errs[0], crawler.ErrIncomplete)
}

func TestWGGesucht(t *testing.T) {
	t.Parallel()

	got := extractFixture(t, NewWGGesucht(), "wggesucht.html")
	require.Equal(t, []crawler.PropertyData{
		{
			Price:        1050,
			SquareMeters: 48,
			Rooms:        2,
			Address:      "Schwabing",
			Title:        WGGesuchtTitle,
			ExternalID:   "wohnungen-in-Muenchen-Schwabing.123.html",
		},
		{
			Price:        1200,
			SquareMeters: 55,
			Rooms:        2,
			Address:      "Pasing",
			Title:        WGGesuchtTitle,
			ExternalID:   "wohnungen-in-Muenchen-Pasing.789.html",
		},
	}, got.data)
	require.Len(t, got.errs, 1)
	require.ErrorIs(t, got.errs[0], ErrTemporary)
}

func TestWohnungsboerse(t *testing.T) {
	t.Parallel()

	got := extractFixture(t, NewWohnungsboerse(), "wohnungsboerse.html")
	require.Equal(t, []crawler.PropertyData{{
		Price:        1290,
		SquareMeters: 92,
		Rooms:        3.5,
		Address:      "Kempten, Zentrum",
		Title:        "Penthouse mit Blick",
		ExternalID:   "991",
	}}, got.data)
	require.Len(t, got.errs, 1)
	require.ErrorIs(t, got.errs[0], crawler.ErrIncomplete)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := Default()
	require.Equal(t, []string{
		IDImmoScout, IDImmoScoutHouses, IDImmowelt, IDSueddeutsche, IDWGGesucht, IDWohnungsboerse,
	}, r.IDs())

	a, err := r.Lookup(IDWGGesucht)
	require.NoError(t, err)
	require.Equal(t, "wggesucht", a.Name())

	_, err = r.Lookup("craigslist")
	require.ErrorIs(t, err, crawler.ErrUnknownAdapter)

	require.Error(t, r.Register(IDImmowelt, NewImmowelt()))
	require.Error(t, r.Register("", NewImmowelt()))
	require.Panics(t, func() { r.MustRegister(IDImmowelt, NewImmowelt()) })
}

func TestTextHelpers(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Kempten, Allgäu", removeBrackets("Kempten (Allgäu) (Kreis), Allgäu"))
	require.Equal(t, "a, b", joinLines("  a \n\n\t b  \n", ", "))
	require.Equal(t, "Titel", collapse("\n\tTi\ttel\n"))
}
