// Package posts creates, deactivates and finds shared food posts.
package posts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"foodshare/internal/models"
	"foodshare/internal/storage"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("food post not found")

// Store is the object store posts are persisted to.
type Store interface {
	Insert(ctx context.Context, post models.FoodPost) error
	Save(ctx context.Context, post models.FoodPost) error
	Find(ctx context.Context, id uuid.UUID) (*models.FoodPost, error)
	List(ctx context.Context) ([]models.FoodPost, error)
}

// Index answers searches. It lags the store until the indexer catches up.
type Index interface {
	Search(ctx context.Context, f models.SearchFilter, now time.Time) ([]models.FoodPost, error)
}

type Service struct {
	store Store
	index Index
	now   func() time.Time
}

// NewService returns a Service backed by store. index may be nil, in which
// case searches scan the store.
func NewService(store Store, index Index) *Service {
	return &Service{store: store, index: index, now: time.Now}
}

func (s *Service) Create(ctx context.Context, d models.Draft) (models.FoodPost, error) {
	post, err := models.NewFoodPost(d, s.now())
	if err != nil {
		return models.FoodPost{}, err
	}
	if err := s.store.Insert(ctx, post); err != nil {
		return models.FoodPost{}, fmt.Errorf("store post: %w", err)
	}
	log.Printf("Created post %s %q for %s", post.ID, post.Title, post.UserID)
	return post, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.FoodPost, error) {
	post, err := s.store.Find(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.FoodPost{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return models.FoodPost{}, err
	}
	return *post, nil
}

// Deactivate soft-deletes a post. Deactivating an inactive post returns it
// unchanged without writing.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (models.FoodPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return models.FoodPost{}, err
	}
	if !post.Deactivate(s.now()) {
		return post, nil
	}
	if err := s.store.Save(ctx, post); err != nil {
		return models.FoodPost{}, fmt.Errorf("save post: %w", err)
	}
	log.Printf("Deactivated post %s", post.ID)
	return post, nil
}

// Feed lists available posts, newest first.
func (s *Service) Feed(ctx context.Context) ([]models.FoodPost, error) {
	return s.scan(ctx, models.SearchFilter{})
}

func (s *Service) Search(ctx context.Context, f models.SearchFilter) ([]models.FoodPost, error) {
	if err := f.Origin.Validate(); f.RadiusKm > 0 && err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidPost, err)
	}
	if s.index != nil {
		return s.index.Search(ctx, f, s.now())
	}
	return s.scan(ctx, f)
}

func (s *Service) scan(ctx context.Context, f models.SearchFilter) ([]models.FoodPost, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var out []models.FoodPost
	for _, p := range all {
		if f.Matches(p, now) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit := f.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
