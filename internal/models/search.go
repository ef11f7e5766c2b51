package models

import (
	"strings"
	"time"

	"foodshare/geo"
	"foodshare/models"
)

const DefaultSearchLimit = 50

// SearchFilter narrows the posts a user browses. Zero values disable a
// criterion; Origin is only consulted when RadiusKm > 0.
type SearchFilter struct {
	Text           string
	VegetarianOnly bool
	MinServings    int
	Origin         models.Coordinate
	RadiusKm       float64
	Limit          int
}

// Matches applies the filter to a single post. Inactive and expired posts
// never match.
func (f SearchFilter) Matches(p FoodPost, now time.Time) bool {
	if !p.Available(now) {
		return false
	}
	if f.VegetarianOnly && !p.IsVegetarian {
		return false
	}
	if f.MinServings > 0 && p.ServingSize < f.MinServings {
		return false
	}
	if text := strings.ToLower(strings.TrimSpace(f.Text)); text != "" {
		if !strings.Contains(strings.ToLower(p.Title), text) && !strings.Contains(strings.ToLower(p.Description), text) {
			return false
		}
	}
	return geo.Within(f.Origin, p.Location.Coordinate(), f.RadiusKm)
}

func (f SearchFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultSearchLimit
	}
	return f.Limit
}
