package models

import (
	"testing"
	"time"

	"foodshare/models"
)

func TestSearchFilterMatches(t *testing.T) {
	now := time.Now()
	post := FoodPost{
		Title:        "Veggie Curry",
		Description:  "Chickpeas and spinach",
		IsVegetarian: true,
		ServingSize:  3,
		Location:     models.Location{Latitude: 37.7749, Longitude: -122.4194, Address: "San Francisco"},
		ExpiresAt:    now.Add(time.Hour),
		IsActive:     true,
	}
	oakland := models.Coordinate{Lat: 37.8044, Lon: -122.2712}

	tests := []struct {
		name   string
		filter SearchFilter
		mutate func(p *FoodPost)
		want   bool
	}{
		{"empty filter", SearchFilter{}, nil, true},
		{"title text any case", SearchFilter{Text: "CURRY"}, nil, true},
		{"description text", SearchFilter{Text: " spinach "}, nil, true},
		{"text miss", SearchFilter{Text: "pizza"}, nil, false},
		{"vegetarian only", SearchFilter{VegetarianOnly: true}, nil, true},
		{"vegetarian only excludes meat", SearchFilter{VegetarianOnly: true}, func(p *FoodPost) { p.IsVegetarian = false }, false},
		{"min servings met", SearchFilter{MinServings: 3}, nil, true},
		{"min servings missed", SearchFilter{MinServings: 4}, nil, false},
		{"within 20km", SearchFilter{Origin: oakland, RadiusKm: 20}, nil, true},
		{"outside 10km", SearchFilter{Origin: oakland, RadiusKm: 10}, nil, false},
		{"origin ignored without radius", SearchFilter{Origin: oakland}, nil, true},
		{"inactive", SearchFilter{}, func(p *FoodPost) { p.IsActive = false }, false},
		{"expired", SearchFilter{}, func(p *FoodPost) { p.ExpiresAt = now }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := post
			if tt.mutate != nil {
				tt.mutate(&p)
			}
			if got := tt.filter.Matches(p, now); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEffectiveLimit(t *testing.T) {
	if got := (SearchFilter{}).EffectiveLimit(); got != DefaultSearchLimit {
		t.Errorf("default limit = %d", got)
	}
	if got := (SearchFilter{Limit: 5}).EffectiveLimit(); got != 5 {
		t.Errorf("limit = %d", got)
	}
}
