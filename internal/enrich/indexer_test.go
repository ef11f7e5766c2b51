package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodshare/internal/models"

	"github.com/google/uuid"
)

type recordingStore struct {
	saved []models.FoodPost
	err   error
}

func (r *recordingStore) Save(ctx context.Context, post models.FoodPost) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, post)
	return nil
}

type recordingIndex struct {
	upserted []models.FoodPost
	err      error
}

func (r *recordingIndex) Upsert(ctx context.Context, post models.FoodPost) error {
	if r.err != nil {
		return r.err
	}
	r.upserted = append(r.upserted, post)
	return nil
}

func TestIndexerPipeline(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name            string
		post            models.FoodPost
		wantSaved       int
		wantActive      bool
		wantDeactivated bool
	}{
		{
			name:       "fresh post is indexed as is",
			post:       models.FoodPost{ID: uuid.New(), IsActive: true, ExpiresAt: now.Add(time.Hour)},
			wantActive: true,
		},
		{
			name:            "expired post is deactivated before indexing",
			post:            models.FoodPost{ID: uuid.New(), IsActive: true, ExpiresAt: now.Add(-time.Minute)},
			wantSaved:       1,
			wantDeactivated: true,
		},
		{
			name: "expired inactive post is not saved again",
			post: models.FoodPost{ID: uuid.New(), IsActive: false, ExpiresAt: now.Add(-time.Hour)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			index := &recordingIndex{}

			post := tt.post
			item := NewItem(&post)
			in := make(chan *Item, 1)
			in <- item
			close(in)

			NewIndexer(store, index, clock).Process(context.Background(), in)

			if len(store.saved) != tt.wantSaved {
				t.Errorf("saved %d posts, want %d", len(store.saved), tt.wantSaved)
			}
			if item.Deactivated != tt.wantDeactivated {
				t.Errorf("Deactivated = %v, want %v", item.Deactivated, tt.wantDeactivated)
			}
			if len(index.upserted) != 1 || !item.Indexed {
				t.Fatalf("post not indexed: %+v", index.upserted)
			}
			if index.upserted[0].IsActive != tt.wantActive {
				t.Errorf("indexed IsActive = %v, want %v", index.upserted[0].IsActive, tt.wantActive)
			}
		})
	}
}

func TestIndexerStepFailures(t *testing.T) {
	now := time.Now()
	post := models.FoodPost{ID: uuid.New(), IsActive: true, ExpiresAt: now.Add(-time.Minute)}

	err := ExpireStep(&recordingStore{err: errors.New("bucket gone")}, func() time.Time { return now })(context.Background(), NewItem(&post))
	if err == nil {
		t.Error("expected save failure to surface")
	}

	item := NewItem(&post)
	if err := IndexStep(&recordingIndex{err: errors.New("db down")})(context.Background(), item); err == nil || item.Indexed {
		t.Error("expected upsert failure to surface")
	}

	if err := IndexStep(&recordingIndex{})(context.Background(), &Item{}); !errors.Is(err, errNoPost) {
		t.Errorf("expected errNoPost, got %v", err)
	}
}
