package location

import (
	"strings"
)

// Address is the addressdetails block Nominatim attaches to a place.
type Address struct {
	Tourism     string `json:"tourism"`
	Amenity     string `json:"amenity"`
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	Suburb      string `json:"suburb"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	Hamlet      string `json:"hamlet"`
	County      string `json:"county"`
	State       string `json:"state"`
	Region      string `json:"region"`
	Postcode    string `json:"postcode"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

// Place is a single Nominatim result, as returned by /search and /reverse
// with format=jsonv2.
type Place struct {
	PlaceID     int64   `json:"place_id"`
	OsmType     string  `json:"osm_type"`
	OsmID       int64   `json:"osm_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	PlaceRank   int     `json:"place_rank"`
	Importance  float64 `json:"importance"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`

	// Error is set by /reverse when no place exists at the point.
	Error string `json:"error,omitempty"`
}

// Placemark is the postal description of a point: the place name, its
// locality and the administrative region around it.
type Placemark struct {
	Name               string
	Locality           string
	AdministrativeArea string
	Country            string
}

// Placemark reduces a Nominatim place to its postal description.
func (p Place) Placemark() Placemark {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.TrimSpace(strings.Join(nonEmpty(p.Address.HouseNumber, p.Address.Road), " "))
	}
	return Placemark{
		Name:               name,
		Locality:           firstNonEmpty(p.Address.City, p.Address.Town, p.Address.Village, p.Address.Hamlet),
		AdministrativeArea: firstNonEmpty(p.Address.State, p.Address.Region, p.Address.County),
		Country:            p.Address.Country,
	}
}

// Label joins name, locality and administrative area with ", ", skipping
// absent parts.
func (pm Placemark) Label() string {
	return strings.Join(nonEmpty(pm.Name, pm.Locality, pm.AdministrativeArea), ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
