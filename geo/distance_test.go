package geo

import (
	"math"
	"testing"

	"foodshare/models"
)

var (
	sanFrancisco = models.Coordinate{Lat: 37.7749, Lon: -122.4194}
	newYork      = models.Coordinate{Lat: 40.7128, Lon: -74.0060}
	oakland      = models.Coordinate{Lat: 37.8044, Lon: -122.2712}
)

func TestHaversineKm(t *testing.T) {
	cases := []struct {
		name string
		a, b models.Coordinate
		want float64
		tol  float64
	}{
		{"same point", sanFrancisco, sanFrancisco, 0, 1e-9},
		{"sf to nyc", sanFrancisco, newYork, 4129, 10},
		{"sf to oakland", sanFrancisco, oakland, 13.4, 0.5},
		{"symmetric", newYork, sanFrancisco, 4129, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := HaversineKm(tc.a, tc.b)
			if math.Abs(got-tc.want) > tc.tol {
				t.Fatalf("HaversineKm(%v, %v) = %f; want %f±%f", tc.a, tc.b, got, tc.want, tc.tol)
			}
		})
	}
}

func TestWithin(t *testing.T) {
	cases := []struct {
		name     string
		radiusKm float64
		expects  bool
	}{
		{"zero radius matches everything", 0, true},
		{"negative radius matches everything", -1, true},
		{"outside 10km", 10, false},
		{"inside 20km", 20, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Within(sanFrancisco, oakland, tc.radiusKm); got != tc.expects {
				t.Fatalf("Within(radius=%f) = %v; want %v", tc.radiusKm, got, tc.expects)
			}
		})
	}
}

func TestApproxEqual(t *testing.T) {
	if !ApproxEqual(newYork, models.Coordinate{Lat: 40.71281, Lon: -74.00601}, 1e-4) {
		t.Fatal("expected points within tolerance to be equal")
	}
	if ApproxEqual(newYork, sanFrancisco, 1e-4) {
		t.Fatal("expected distant points to differ")
	}
}
