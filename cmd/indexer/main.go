package main

import (
	"context"
	"log"
	"time"

	"foodshare/internal/enrich"
	"foodshare/internal/env"
	"foodshare/internal/models"
	"foodshare/internal/service"
	"foodshare/internal/storage"
	"foodshare/pkg/graceful"
	"foodshare/pkg/kafkaclient"
)

func main() {
	env.LoadEnv()
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	cfg, err := env.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	postgresURL := env.MustGetEnv("POSTGRES_URL")

	log.Printf("Connecting to Kafka brokers: %v on topic: %s with group ID: %s", cfg.KafkaBrokers(), cfg.KafkaNotifyTopic, cfg.KafkaGroupID)
	consumer, err := kafkaclient.NewKafkaConsumer(kafkaclient.Config{
		Brokers: cfg.KafkaBrokers(),
		Topic:   cfg.KafkaNotifyTopic,
		GroupID: cfg.KafkaGroupID,
	})
	if err != nil {
		log.Fatalf("Failed to create kafka consumer %v", err)
	}

	store, err := storage.NewS3Store(storage.S3Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		UseSSL:    cfg.MinioUseSSL,
		Bucket:    cfg.MinioBucket,
		Region:    cfg.MinioRegion,
	})
	if err != nil {
		log.Fatal(err)
	}

	pool, err := storage.ConnectPostgres(ctx, postgresURL)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()
	index := storage.NewIndex(pool)
	if err := index.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate search index: %v", err)
	}

	consumer.StartConsuming(ctx)
	iterator := service.NewIterator(consumer, func(ctx context.Context, bucket, key string) (*models.FoodPost, error) {
		return store.GetObject(ctx, bucket, key)
	})

	items := make(chan *enrich.Item)
	go func() {
		defer close(items)
		for obj := range iterator.Objects(ctx) {
			select {
			case items <- enrich.NewItem(obj.Data):
			case <-ctx.Done():
				return
			}
		}
	}()

	n := enrich.NewIndexer(store, index, time.Now).Process(ctx, items)

	consumer.Stop()
	if err := iterator.Err(); err != nil {
		log.Fatalf("Indexer stopped after %d posts, offset left uncommitted: %v", n, err)
	}
	log.Printf("Indexed %d posts, indexer exiting.", n)
}
