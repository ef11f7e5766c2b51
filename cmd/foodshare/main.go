package main

import (
	"context"
	"log"
	"time"

	"foodshare/internal/env"
	"foodshare/internal/picker"
	"foodshare/internal/posts"
	"foodshare/internal/server"
	"foodshare/internal/storage"
	"foodshare/pkg/devicelocation"
	"foodshare/pkg/graceful"
	"foodshare/pkg/kafkaclient"
	"foodshare/pkg/location"
)

func main() {
	env.LoadEnv()
	cfg, err := env.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

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
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal(err)
	}

	// Without Postgres, searches scan the object store.
	var index posts.Index
	if cfg.PostgresURL != "" {
		pool, err := storage.ConnectPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("postgres connection failed: %v", err)
		}
		defer pool.Close()
		index = storage.NewIndex(pool)
	}

	geocoder := location.NewClient(
		location.WithBaseURL(cfg.NominatimURL),
		location.WithUserAgent(cfg.NominatimUserAgent),
	)

	var locators picker.LocatorFactory
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 && cfg.KafkaDeviceTopic != "" {
		locators = func(deviceID string) picker.Locator {
			source := devicelocation.NewKafkaSource(kafkaclient.Config{Brokers: brokers, Topic: cfg.KafkaDeviceTopic}, deviceID)
			return devicelocation.NewProvider(source)
		}
	}

	sessions := picker.NewSessions(ctx, geocoder, locators)
	srv := server.NewServer(sessions, posts.NewService(store, index))

	go expireSessions(ctx, sessions, cfg.SessionTTL)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", cfg.ServerPort)
		errCh <- srv.App.Listen(cfg.ServerPort)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Printf("server exited with error: %v", err)
		}
	case <-ctx.Done():
		_ = graceful.Shutdown(10*time.Second, srv.App.ShutdownWithContext)
	}

	sessions.CloseAll()
	log.Println("Server stopped.")
}

// expireSessions drops picker sessions left open longer than ttl.
func expireSessions(ctx context.Context, sessions *picker.Sessions, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Expire(ttl); n > 0 {
				log.Printf("Expired %d idle picker sessions", n)
			}
		}
	}
}
