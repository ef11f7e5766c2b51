package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate is returned for a latitude or longitude out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the point lies within [-90, 90] x [-180, 180].
// NaN and infinite components are rejected.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return fmt.Errorf("%w: not a number", ErrInvalidCoordinate)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Location is the place a food post is picked up from.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// NewLocation builds a Location from a coordinate and its label.
func NewLocation(c Coordinate, address string) Location {
	return Location{Latitude: c.Lat, Longitude: c.Lon, Address: address}
}

func (l Location) Coordinate() Coordinate {
	return Coordinate{Lat: l.Latitude, Lon: l.Longitude}
}
