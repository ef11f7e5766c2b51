package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"foodshare/internal/env"
	"foodshare/models"
	"foodshare/pkg/devicelocation"
	"foodshare/pkg/graceful"
	"foodshare/pkg/kafkaclient"
	"foodshare/pkg/location"
)

func main() {
	address := flag.String("address", "", "address to look up")
	lat := flag.Float64("lat", 0, "latitude to reverse geocode")
	lon := flag.Float64("lon", 0, "longitude to reverse geocode")
	device := flag.String("device", "", "reverse geocode the next position published by this device")
	timeout := flag.Duration("timeout", 30*time.Second, "how long to wait for the provider or device")
	flag.Parse()

	env.LoadEnv()
	cfg, err := env.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	client := location.NewClient(
		location.WithBaseURL(cfg.NominatimURL),
		location.WithUserAgent(cfg.NominatimUserAgent),
	)

	start := time.Now()
	switch {
	case *address != "":
		coord, err := client.Forward(ctx, *address)
		if err != nil {
			fail(err)
		}
		fmt.Println(coord)

	case *device != "":
		source := devicelocation.NewKafkaSource(kafkaclient.Config{Brokers: cfg.KafkaBrokers(), Topic: cfg.KafkaDeviceTopic}, *device)
		fmt.Printf("Waiting for a position from device %s...\n", *device)
		coord, err := devicelocation.NewProvider(source).RequestCurrentLocation(ctx)
		if err != nil {
			fail(err)
		}
		reverse(ctx, client, coord)

	case isFlagSet("lat") && isFlagSet("lon"):
		reverse(ctx, client, models.Coordinate{Lat: *lat, Lon: *lon})

	default:
		flag.Usage()
		os.Exit(2)
	}

	log.Printf("Lookup took %s", time.Since(start))
}

func reverse(ctx context.Context, client *location.Client, coord models.Coordinate) {
	if err := coord.Validate(); err != nil {
		fail(err)
	}
	pm, err := client.ReversePlacemark(ctx, coord)
	if err != nil {
		fail(err)
	}
	if pm.Label() == "" {
		fail(location.ErrNotFound)
	}
	fmt.Printf("%s\t%s\n", coord, pm.Label())
	if pm.Country != "" {
		fmt.Printf("country: %s\n", pm.Country)
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func fail(err error) {
	switch {
	case errors.Is(err, location.ErrNotFound):
		fmt.Fprintln(os.Stderr, "Location not found.")
		os.Exit(1)
	case errors.Is(err, devicelocation.ErrPermissionDenied):
		fmt.Fprintln(os.Stderr, "Location permission denied.")
		os.Exit(1)
	default:
		log.Fatal(err)
	}
}
