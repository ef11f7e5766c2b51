package devicelocation

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"foodshare/pkg/kafkaclient"

	"github.com/segmentio/kafka-go"
)

// KafkaSource reads fixes for one device from a Kafka topic. Every
// subscription gets its own reader, positioned at the end of the topic, so
// only updates published after Subscribe are seen.
type KafkaSource struct {
	deviceID    string
	newConsumer func() (*kafkaclient.KafkaConsumer, error)
}

func NewKafkaSource(cfg kafkaclient.Config, deviceID string) *KafkaSource {
	if cfg.GroupID == "" && cfg.StartOffset == 0 {
		cfg.StartOffset = kafka.LastOffset
	}
	return &KafkaSource{
		deviceID: deviceID,
		newConsumer: func() (*kafkaclient.KafkaConsumer, error) {
			return kafkaclient.NewKafkaConsumer(cfg)
		},
	}
}

func (s *KafkaSource) Subscribe(ctx context.Context) (Subscription, error) {
	consumer, err := s.newConsumer()
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &kafkaSubscription{
		consumer: consumer,
		cancel:   cancel,
		fixes:    make(chan Fix),
	}
	consumer.StartConsuming(subCtx)

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		defer close(sub.fixes)
		for msg := range consumer.Messages() {
			var fix Fix
			if err := json.Unmarshal(msg.Value, &fix); err != nil {
				log.Printf("Skipping undecodable location message at offset %d: %v", msg.Offset, err)
				continue
			}
			if fix.DeviceID != s.deviceID {
				continue
			}
			select {
			case sub.fixes <- fix:
			case <-subCtx.Done():
				return
			}
		}
	}()
	return sub, nil
}

type kafkaSubscription struct {
	consumer *kafkaclient.KafkaConsumer
	cancel   context.CancelFunc
	fixes    chan Fix
	wg       sync.WaitGroup
	once     sync.Once
}

func (s *kafkaSubscription) Fixes() <-chan Fix { return s.fixes }

func (s *kafkaSubscription) Stop() {
	s.once.Do(func() {
		s.cancel()
		s.consumer.Stop()
		s.wg.Wait()
	})
}

// StaticSource answers every subscription with the same fix. It backs
// deployments without a device stream.
type StaticSource struct {
	Fix Fix
}

func (s StaticSource) Subscribe(context.Context) (Subscription, error) {
	ch := make(chan Fix, 1)
	ch <- s.Fix
	close(ch)
	return staticSubscription(ch), nil
}

type staticSubscription chan Fix

func (s staticSubscription) Fixes() <-chan Fix { return s }
func (s staticSubscription) Stop()             {}
