package geo

import (
	"math"

	"foodshare/models"
)

const earthRadiusKm = 6371.0

// SearchRadiiKm are the distance options offered when browsing posts.
var SearchRadiiKm = []float64{1, 2, 5, 10}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b models.Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Within reports whether b lies within radiusKm of a. A radius <= 0 matches everything.
func Within(a, b models.Coordinate, radiusKm float64) bool {
	if radiusKm <= 0 {
		return true
	}
	return HaversineKm(a, b) <= radiusKm
}

// ApproxEqual compares two coordinates with the given tolerance in degrees.
func ApproxEqual(a, b models.Coordinate, tolerance float64) bool {
	return math.Abs(a.Lat-b.Lat) <= tolerance && math.Abs(a.Lon-b.Lon) <= tolerance
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
