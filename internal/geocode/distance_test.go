package geocode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

var (
	munich   = crawler.Coordinate{Latitude: 48.1372, Longitude: 11.5756}
	augsburg = crawler.Coordinate{Latitude: 48.3705, Longitude: 10.8978}
	kempten  = crawler.Coordinate{Latitude: 47.7267, Longitude: 10.3139}
)

func TestDistanceIsSymmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]crawler.Coordinate{{munich, augsburg}, {augsburg, kempten}, {kempten, munich}}
	for _, p := range pairs {
		require.Equal(t, Distance(p[0], p[1]), Distance(p[1], p[0]))
	}
}

func TestDistanceToSelfIsZero(t *testing.T) {
	t.Parallel()

	for _, c := range []crawler.Coordinate{munich, augsburg, kempten, {}} {
		require.Zero(t, Distance(c, c))
	}
}

func TestDistanceKnownValues(t *testing.T) {
	t.Parallel()

	// One degree along a meridian is R·π/180.
	oneDegree := Distance(crawler.Coordinate{Latitude: 0}, crawler.Coordinate{Latitude: 1})
	require.InDelta(t, 111194.94, oneDegree, 0.05)

	// Munich to Augsburg is roughly 56 km as the crow flies.
	require.InDelta(t, 56_500, Distance(munich, augsburg), 1_000)
}

func TestUncertaintyIsBoxDiagonal(t *testing.T) {
	t.Parallel()

	box := crawler.BoundingBox{MinLat: 48.1368, MaxLat: 48.1378, MinLon: 11.5749, MaxLon: 11.5759}
	sw := crawler.Coordinate{Latitude: 48.1368, Longitude: 11.5749}
	ne := crawler.Coordinate{Latitude: 48.1378, Longitude: 11.5759}

	require.Equal(t, Distance(sw, ne), Uncertainty(box))
	require.InDelta(t, 134, Uncertainty(box), 5)
	require.Zero(t, Uncertainty(crawler.BoundingBox{MinLat: 1, MaxLat: 1, MinLon: 2, MaxLon: 2}))
}
