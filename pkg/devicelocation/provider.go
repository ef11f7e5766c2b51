// Package devicelocation obtains a device's current position once per
// request from a stream of location updates.
package devicelocation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"foodshare/models"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("current location unavailable")
)

type Status string

const (
	StatusOK     Status = "ok"
	StatusDenied Status = "denied"
)

// Fix is a single update published by a device's location service. A fix
// with StatusDenied carries no position.
type Fix struct {
	DeviceID   string    `json:"device_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Accuracy   float64   `json:"accuracy"`
	Status     Status    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (f Fix) Coordinate() models.Coordinate {
	return models.Coordinate{Lat: f.Lat, Lon: f.Lon}
}

// Subscription is a live stream of fixes. Stop ends the stream and releases
// the underlying resources; it may be called more than once.
type Subscription interface {
	Fixes() <-chan Fix
	Stop()
}

// Source opens subscriptions to a device's location updates.
type Source interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// Provider requests one fix at a time and remembers the latest one.
type Provider struct {
	source Source

	mu      sync.RWMutex
	last    models.Coordinate
	hasLast bool
}

func NewProvider(source Source) *Provider {
	return &Provider{source: source}
}

// RequestCurrentLocation subscribes to the source, waits for the first fix
// or a permission denial, and tears the subscription down before returning.
func (p *Provider) RequestCurrentLocation(ctx context.Context) (models.Coordinate, error) {
	sub, err := p.source.Subscribe(ctx)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer sub.Stop()

	select {
	case fix, ok := <-sub.Fixes():
		if !ok {
			return models.Coordinate{}, fmt.Errorf("%w: location stream closed", ErrUnavailable)
		}
		if fix.Status == StatusDenied {
			return models.Coordinate{}, ErrPermissionDenied
		}
		coord := fix.Coordinate()
		if err := coord.Validate(); err != nil {
			return models.Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		p.mu.Lock()
		p.last, p.hasLast = coord, true
		p.mu.Unlock()

		log.Printf("Current location for device %s: %s (accuracy %.0fm)", fix.DeviceID, coord, fix.Accuracy)
		return coord, nil
	case <-ctx.Done():
		return models.Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

// LastLocation returns the most recent fix obtained by RequestCurrentLocation.
func (p *Provider) LastLocation() (models.Coordinate, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.hasLast
}
