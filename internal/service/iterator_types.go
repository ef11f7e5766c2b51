package service

import (
	"context"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
)

// MessageIterator is the message source an Iterator drains.
// *kafkaclient.KafkaConsumer satisfies it.
type MessageIterator interface {
	// Messages is closed by the implementation when consumption stops.
	Messages() <-chan kafka.Message

	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads the object a notification refers to. It must not modify
// the object store.
type LoaderFunc[T any] func(ctx context.Context, bucket, key string) (T, error)

// FetchedObject pairs a loaded object with the notification record that
// referenced it.
type FetchedObject[T any] struct {
	Data  T
	Event notification.Event
}
