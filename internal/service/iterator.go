// Package service turns bucket notifications read from Kafka into the stored
// objects they reference.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
)

const (
	defaultLoadAttempts = 5
	defaultLoadBackoff  = 500 * time.Millisecond
	maxLoadBackoff      = 30 * time.Second
)

// Iterator reads MinIO notification messages from a MessageIterator and loads
// each created object with a LoaderFunc. The caller owns the message source
// and is responsible for starting and stopping it.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
	attempts    int
	backoff     time.Duration

	err error
}

// Option tunes how an Iterator retries failed loads.
type Option func(*retryPolicy)

type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

// WithRetry sets how often a failed load is attempted and the initial delay
// between attempts. The delay doubles after every failure.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(p *retryPolicy) {
		if attempts > 0 {
			p.attempts = attempts
		}
		if backoff > 0 {
			p.backoff = backoff
		}
	}
}

func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T], opts ...Option) *Iterator[T] {
	policy := retryPolicy{attempts: defaultLoadAttempts, backoff: defaultLoadBackoff}
	for _, opt := range opts {
		opt(&policy)
	}
	return &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
		attempts:    policy.attempts,
		backoff:     policy.backoff,
	}
}

// Objects streams the loaded objects until the message channel closes or ctx
// is done. A message is committed once all its object-created records have
// been delivered. Undecodable messages are logged and committed so they are
// not redelivered.
//
// Committing an offset also commits every earlier offset of the partition, so
// the iterator never moves past a message whose load keeps failing. It stops
// instead, leaving that message uncommitted, and Err reports why.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		messages := it.msgIterator.Messages()
		for {
			var msg kafka.Message
			var ok bool
			select {
			case <-ctx.Done():
				return
			case msg, ok = <-messages:
				if !ok {
					return
				}
			}

			if err := it.deliver(ctx, msg, out); err != nil {
				if ctx.Err() == nil {
					it.err = err
				}
				return
			}
			if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
				log.Printf("Failed to commit offset: %v", err)
			}
		}
	}()
	return out
}

// Err returns the load failure that stopped the iterator. It is only
// meaningful once the channel returned by Objects has been closed.
func (it *Iterator[T]) Err() error {
	return it.err
}

// deliver sends every created object of msg. A nil result means msg may be
// committed.
func (it *Iterator[T]) deliver(ctx context.Context, msg kafka.Message, out chan<- *FetchedObject[T]) error {
	var info notification.Info
	if err := json.Unmarshal(msg.Value, &info); err != nil {
		log.Printf("Error unmarshalling JSON: %v", err)
		return nil
	}

	for _, event := range info.Records {
		if !strings.HasPrefix(event.EventName, "s3:ObjectCreated:") {
			continue
		}
		objectKey, err := url.QueryUnescape(event.S3.Object.Key)
		if err != nil {
			log.Printf("Skipping object with malformed key %q: %v", event.S3.Object.Key, err)
			continue
		}
		data, err := it.load(ctx, event.S3.Bucket.Name, objectKey)
		if err != nil {
			return fmt.Errorf("loading %s at offset %d of partition %d: %w", objectKey, msg.Offset, msg.Partition, err)
		}

		select {
		case out <- &FetchedObject[T]{Data: data, Event: event}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (it *Iterator[T]) load(ctx context.Context, bucket, key string) (T, error) {
	delay := it.backoff
	for attempt := 1; ; attempt++ {
		data, err := it.loader(ctx, bucket, key)
		if err == nil {
			return data, nil
		}
		if attempt >= it.attempts {
			return data, err
		}
		log.Printf("Error loading object %s (attempt %d/%d), retrying in %s: %v", key, attempt, it.attempts, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return data, ctx.Err()
		}
		delay = min(delay*2, maxLoadBackoff)
	}
}
