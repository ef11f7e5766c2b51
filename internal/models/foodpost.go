package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"foodshare/models"

	"github.com/google/uuid"
)

const (
	MinServings            = 1
	MaxServings            = 20
	MinExpirationHours     = 1
	MaxExpirationHours     = 24
	DefaultExpirationHours = 4
)

// ErrInvalidPost wraps every validation failure of a post draft.
var ErrInvalidPost = errors.New("invalid food post")

// FoodPost is a shared surplus-food listing. Everything except IsActive and
// UpdatedAt is fixed when the post is created.
type FoodPost struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"image_url,omitempty"`
	IsVegetarian bool            `json:"is_vegetarian"`
	ServingSize  int             `json:"serving_size"`
	Location     models.Location `json:"location"`
	ExpiresAt    time.Time       `json:"expires_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	UserID       string          `json:"user_id"`
	IsActive     bool            `json:"is_active"`
}

// Draft is what a user submits to create a post.
type Draft struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	ImageURL        string          `json:"image_url,omitempty"`
	IsVegetarian    bool            `json:"is_vegetarian"`
	ServingSize     int             `json:"serving_size"`
	Location        models.Location `json:"location"`
	ExpirationHours int             `json:"expiration_hours"`
	UserID          string          `json:"user_id"`
}

// Validate checks a draft. A zero ExpirationHours means the default window.
func (d Draft) Validate() error {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidPost)
	case strings.TrimSpace(d.Description) == "":
		return fmt.Errorf("%w: description is required", ErrInvalidPost)
	case d.ServingSize < MinServings || d.ServingSize > MaxServings:
		return fmt.Errorf("%w: serving size %d outside %d..%d", ErrInvalidPost, d.ServingSize, MinServings, MaxServings)
	case d.ExpirationHours != 0 && (d.ExpirationHours < MinExpirationHours || d.ExpirationHours > MaxExpirationHours):
		return fmt.Errorf("%w: expiration %dh outside %d..%d", ErrInvalidPost, d.ExpirationHours, MinExpirationHours, MaxExpirationHours)
	case strings.TrimSpace(d.Location.Address) == "":
		return fmt.Errorf("%w: location address is required", ErrInvalidPost)
	case strings.TrimSpace(d.UserID) == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidPost)
	}
	if err := d.Location.Coordinate().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}
	return nil
}

// NewFoodPost validates the draft and builds an active post created at now.
func NewFoodPost(d Draft, now time.Time) (FoodPost, error) {
	if err := d.Validate(); err != nil {
		return FoodPost{}, err
	}
	hours := d.ExpirationHours
	if hours == 0 {
		hours = DefaultExpirationHours
	}
	now = now.UTC()
	return FoodPost{
		ID:           uuid.New(),
		Title:        strings.TrimSpace(d.Title),
		Description:  strings.TrimSpace(d.Description),
		ImageURL:     d.ImageURL,
		IsVegetarian: d.IsVegetarian,
		ServingSize:  d.ServingSize,
		Location:     d.Location,
		ExpiresAt:    now.Add(time.Duration(hours) * time.Hour),
		CreatedAt:    now,
		UpdatedAt:    now,
		UserID:       strings.TrimSpace(d.UserID),
		IsActive:     true,
	}, nil
}

// Deactivate soft-deletes the post. It reports false if it was already inactive.
func (p *FoodPost) Deactivate(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	p.IsActive = false
	p.UpdatedAt = now.UTC()
	return true
}

func (p FoodPost) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Available reports whether the post should be shown to other users.
func (p FoodPost) Available(now time.Time) bool {
	return p.IsActive && !p.Expired(now)
}
