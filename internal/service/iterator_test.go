package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	ch chan kafka.Message

	mu        sync.Mutex
	committed []int64
}

func newFakeMessages(msgs ...kafka.Message) *fakeMessages {
	ch := make(chan kafka.Message, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	close(ch)
	return &fakeMessages{ch: ch}
}

func (f *fakeMessages) Messages() <-chan kafka.Message { return f.ch }

func (f *fakeMessages) CommitOffset(ctx context.Context, msg kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msg.Offset)
	return nil
}

func notificationMessage(t *testing.T, offset int64, eventName, bucket string, keys ...string) kafka.Message {
	t.Helper()
	var info notification.Info
	for _, key := range keys {
		var ev notification.Event
		ev.EventName = eventName
		ev.S3.Bucket.Name = bucket
		ev.S3.Object.Key = key
		info.Records = append(info.Records, ev)
	}
	data, err := json.Marshal(struct {
		Records []notification.Event
	}{info.Records})
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: data}
}

func collect[T any](ch <-chan *FetchedObject[T]) []*FetchedObject[T] {
	var out []*FetchedObject[T]
	for obj := range ch {
		out = append(out, obj)
	}
	return out
}

func TestIteratorLoadsCreatedObjects(t *testing.T) {
	src := newFakeMessages(
		notificationMessage(t, 1, "s3:ObjectCreated:Put", "posts", "posts/user-1/a.json"),
		kafka.Message{Offset: 2, Value: []byte("not json")},
		notificationMessage(t, 3, "s3:ObjectRemoved:Delete", "posts", "posts/user-1/gone.json"),
		notificationMessage(t, 4, "s3:ObjectCreated:Put", "posts", "posts/jane%20doe/b.json", "posts/user-2/c.json"),
	)

	var loaded []string
	it := NewIterator(src, func(ctx context.Context, bucket, key string) (string, error) {
		loaded = append(loaded, bucket+"/"+key)
		return key, nil
	})

	objs := collect(it.Objects(context.Background()))
	require.Len(t, objs, 3)
	assert.Equal(t, []string{"posts/posts/user-1/a.json", "posts/posts/jane doe/b.json", "posts/posts/user-2/c.json"}, loaded)
	assert.Equal(t, "posts/user-1/a.json", objs[0].Data)
	assert.Equal(t, "s3:ObjectCreated:Put", objs[0].Event.EventName)
	assert.Equal(t, []int64{1, 2, 3, 4}, src.committed)
}

func TestIteratorRetriesFailedLoads(t *testing.T) {
	src := newFakeMessages(
		notificationMessage(t, 1, "s3:ObjectCreated:Put", "posts", "posts/flaky.json"),
		notificationMessage(t, 2, "s3:ObjectCreated:Put", "posts", "posts/fine.json"),
	)

	calls := 0
	it := NewIterator(src, func(ctx context.Context, bucket, key string) (string, error) {
		if key == "posts/flaky.json" {
			calls++
			if calls < 3 {
				return "", errors.New("connection reset")
			}
		}
		return key, nil
	}, WithRetry(3, time.Millisecond))

	objs := collect(it.Objects(context.Background()))
	require.Len(t, objs, 2)
	assert.Equal(t, "posts/flaky.json", objs[0].Data)
	assert.Equal(t, "posts/fine.json", objs[1].Data)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int64{1, 2}, src.committed)
	assert.NoError(t, it.Err())
}

func TestIteratorStopsAtPersistentLoadFailure(t *testing.T) {
	src := newFakeMessages(
		notificationMessage(t, 1, "s3:ObjectCreated:Put", "posts", "posts/before.json"),
		notificationMessage(t, 2, "s3:ObjectCreated:Put", "posts", "posts/broken.json"),
		notificationMessage(t, 3, "s3:ObjectCreated:Put", "posts", "posts/after.json"),
	)

	var loaded []string
	it := NewIterator(src, func(ctx context.Context, bucket, key string) (string, error) {
		loaded = append(loaded, key)
		if key == "posts/broken.json" {
			return "", errors.New("decode failed")
		}
		return key, nil
	}, WithRetry(2, time.Millisecond))

	objs := collect(it.Objects(context.Background()))
	require.Len(t, objs, 1)
	assert.Equal(t, "posts/before.json", objs[0].Data)
	assert.Equal(t, []string{"posts/before.json", "posts/broken.json", "posts/broken.json"}, loaded)
	// Nothing past the failed message may be committed.
	assert.Equal(t, []int64{1}, src.committed)
	require.Error(t, it.Err())
	assert.Contains(t, it.Err().Error(), "posts/broken.json")
}

func TestIteratorCancelDuringRetryIsNotAnError(t *testing.T) {
	src := newFakeMessages(
		notificationMessage(t, 1, "s3:ObjectCreated:Put", "posts", "posts/broken.json"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	it := NewIterator(src, func(ctx context.Context, bucket, key string) (string, error) {
		cancel()
		return "", errors.New("unavailable")
	}, WithRetry(10, time.Hour))

	objs := collect(it.Objects(ctx))
	assert.Empty(t, objs)
	assert.Empty(t, src.committed)
	assert.NoError(t, it.Err())
}

func TestIteratorStopsOnContextCancel(t *testing.T) {
	src := &fakeMessages{ch: make(chan kafka.Message)}
	it := NewIterator(src, func(ctx context.Context, bucket, key string) (string, error) {
		return key, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	out := it.Objects(ctx)
	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok, "expected the output channel to close")
	case <-time.After(time.Second):
		t.Fatal("iterator did not stop after cancel")
	}
}
