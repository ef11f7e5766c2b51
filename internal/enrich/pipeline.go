package enrich

import (
	"context"
	"log"
	"sync"
)

// Pipeline runs its stages over every item read from a channel. Steps of a
// stage run in parallel; a stage starts only after the previous one has
// finished for the same item. Step errors are logged and do not stop the item.
type Pipeline[T any] struct {
	stages []Stage[T]
}

func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// Process blocks until in is closed or ctx is done. It returns the number of
// items that went through every stage.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T) int {
	processed := 0
	for {
		select {
		case <-ctx.Done():
			return processed
		case item, ok := <-in:
			if !ok {
				return processed
			}
			p.run(ctx, item)
			processed++
		}
	}
}

func (p *Pipeline[T]) run(ctx context.Context, item *T) {
	for i, stage := range p.stages {
		var wg sync.WaitGroup
		for _, step := range stage.steps {
			wg.Add(1)
			go func(step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					log.Printf("Stage %d step failed: %v", i, err)
				}
			}(step)
		}
		wg.Wait()
	}
}
