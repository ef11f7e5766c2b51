package enrich

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"foodshare/internal/models"
)

var errNoPost = errors.New("item carries no post")

// Item is a post moving through the indexer pipeline.
type Item struct {
	Post *models.FoodPost
	// Deactivated is set when the post expired and was switched off.
	Deactivated bool
	Indexed     bool
}

func NewItem(post *models.FoodPost) *Item {
	return &Item{Post: post}
}

// Saver writes a post back to the object store.
type Saver interface {
	Save(ctx context.Context, post models.FoodPost) error
}

// Upserter writes a post to the search index.
type Upserter interface {
	Upsert(ctx context.Context, post models.FoodPost) error
}

// ExpireStep deactivates posts past their expiration and saves them back.
// Saving an already inactive post is skipped, so the resulting notification
// does not loop.
func ExpireStep(store Saver, now func() time.Time) Step[Item] {
	return func(ctx context.Context, item *Item) error {
		if item.Post == nil {
			return errNoPost
		}
		t := now()
		if !item.Post.Expired(t) || !item.Post.Deactivate(t) {
			return nil
		}
		if err := store.Save(ctx, *item.Post); err != nil {
			return fmt.Errorf("save expired post %s: %w", item.Post.ID, err)
		}
		item.Deactivated = true
		log.Printf("Deactivated expired post %s", item.Post.ID)
		return nil
	}
}

// IndexStep upserts the post into the search index.
func IndexStep(index Upserter) Step[Item] {
	return func(ctx context.Context, item *Item) error {
		if item.Post == nil {
			return errNoPost
		}
		if err := index.Upsert(ctx, *item.Post); err != nil {
			return err
		}
		item.Indexed = true
		return nil
	}
}

// NewIndexer builds the indexer pipeline: expiry first, then indexing.
func NewIndexer(store Saver, index Upserter, now func() time.Time) *Pipeline[Item] {
	return NewPipeline(
		NewStage(ExpireStep(store, now)),
		NewStage(IndexStep(index)),
	)
}
