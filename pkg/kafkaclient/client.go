package kafkaclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaReader defines the interface for a Kafka message reader.
// This allows for easy mocking in unit tests.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config selects the topic a consumer reads. Without a GroupID the reader is
// a plain partition reader starting at StartOffset and offsets are not
// committed.
type Config struct {
	Brokers     []string
	Topic       string
	GroupID     string
	StartOffset int64
}

// KafkaConsumer pumps messages from a reader into a channel until it is
// stopped or its context ends.
type KafkaConsumer struct {
	reader KafkaReader
	// closed to signal a graceful shutdown.
	doneChan chan struct{}
	stopOnce sync.Once
	// waits for the consume loop to exit.
	wg          sync.WaitGroup
	messageChan chan kafka.Message
	backoff     time.Duration
	// false for partition readers, which have no group to commit to.
	commits bool
}

// NewKafkaConsumer creates a consumer backed by a kafka-go reader.
func NewKafkaConsumer(cfg Config) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Brokers[0] == "" {
		return nil, fmt.Errorf("kafka consumer: no broker configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka consumer: no topic configured")
	}
	rc := kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
		// Offsets are committed manually after processing.
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	}
	if cfg.GroupID == "" {
		rc.StartOffset = cfg.StartOffset
	}
	kc := NewConsumerWithReader(kafka.NewReader(rc))
	kc.commits = cfg.GroupID != ""
	return kc, nil
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(reader KafkaReader) *KafkaConsumer {
	return &KafkaConsumer{
		reader:      reader,
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
		backoff:     time.Second,
		commits:     true,
	}
}

func (kc *KafkaConsumer) Messages() <-chan kafka.Message {
	return kc.messageChan
}

// CommitOffset marks msg as processed. It is a no-op without a consumer group.
func (kc *KafkaConsumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	if !kc.commits {
		return nil
	}
	log.Printf("Committing offset for topic=%s, partition=%d, offset=%d", msg.Topic, msg.Partition, msg.Offset)
	return kc.reader.CommitMessages(ctx, msg)
}

// StartConsuming begins the consume loop in a separate goroutine. The
// message channel is closed when the loop exits.
func (kc *KafkaConsumer) StartConsuming(ctx context.Context) {
	kc.wg.Add(1)
	go func() {
		defer kc.wg.Done()
		defer close(kc.messageChan)

		for {
			select {
			case <-ctx.Done():
				return
			case <-kc.doneChan:
				return
			default:
			}

			msg, err := kc.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					return
				}
				log.Printf("Error reading message: %v", err)
				select {
				case <-time.After(kc.backoff):
					continue
				case <-ctx.Done():
					return
				case <-kc.doneChan:
					return
				}
			}

			select {
			case kc.messageChan <- msg:
			case <-ctx.Done():
				return
			case <-kc.doneChan:
				return
			}
		}
	}()
}

// Stop shuts the consumer down and closes the reader. It is safe to call
// more than once.
func (kc *KafkaConsumer) Stop() {
	kc.stopOnce.Do(func() {
		close(kc.doneChan)
		// Closing the reader unblocks a pending FetchMessage.
		if err := kc.reader.Close(); err != nil {
			log.Printf("Failed to close Kafka reader: %v", err)
		}
		kc.wg.Wait()
	})
}
