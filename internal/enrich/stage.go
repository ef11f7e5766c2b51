// Package enrich runs post-processing steps over posts loaded by the indexer.
// Steps within a stage run in parallel; stages run in order.
package enrich

import (
	"context"
)

// Step mutates an item in place. Steps sharing a stage run concurrently on
// the same item and must not write the same fields.
type Step[T any] func(ctx context.Context, item *T) error

// Stage is a set of steps that are started together for one item.
type Stage[T any] struct {
	steps []Step[T]
}

func NewStage[T any](steps ...Step[T]) Stage[T] {
	return Stage[T]{steps: steps}
}
