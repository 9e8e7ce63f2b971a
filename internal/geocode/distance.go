package geocode

import (
	"math"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.785

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b crawler.Coordinate) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Uncertainty is the diagonal of the bounding box, used as the error radius
// of a match.
func Uncertainty(box crawler.BoundingBox) float64 {
	sw, ne := box.Corners()
	return Distance(sw, ne)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
