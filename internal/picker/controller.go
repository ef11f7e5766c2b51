// Package picker keeps a map pin and a free-text address in agreement
// while a user chooses where a food post can be picked up.
//
// The pin and the address are only ever driven by explicit transitions:
// PinMoved and UseCurrentLocation reverse-geocode the pin, CommitAddress
// forward-geocodes the address. Writes made while applying a geocoding
// result never trigger the opposite transition, so the two representations
// cannot feed back into each other.
package picker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"foodshare/models"
	"foodshare/pkg/devicelocation"
	"foodshare/pkg/location"
)

type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateSettled State = "settled"
	StateError   State = "error"
)

// FallbackAddress labels a confirmed location whose address is still empty.
const FallbackAddress = "Selected Location"

// ErrClosed is returned by every operation after Confirm or Cancel.
var ErrClosed = errors.New("picker session closed")

// DefaultPin is where the pin starts when the caller has no better guess.
var DefaultPin = models.Coordinate{Lat: 37.7749, Lon: -122.4194}

type Geocoder interface {
	Forward(ctx context.Context, address string) (models.Coordinate, error)
	Reverse(ctx context.Context, coord models.Coordinate) (string, error)
}

type Locator interface {
	RequestCurrentLocation(ctx context.Context) (models.Coordinate, error)
	LastLocation() (models.Coordinate, bool)
}

// PinState is a snapshot of one picker session.
type PinState struct {
	State        State             `json:"state"`
	Center       models.Coordinate `json:"center"`
	Pin          models.Coordinate `json:"pin"`
	Address      string            `json:"address"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// Controller owns the PinState of a single picker session. Geocoding runs on
// background goroutines; results are applied under the controller's lock and
// only if they belong to the most recently issued request.
type Controller struct {
	geocoder Geocoder
	locator  Locator

	mu     sync.Mutex
	state  PinState
	seq    uint64
	closed bool
	ctx    context.Context
	cancel context.CancelFunc

	inflight sync.WaitGroup
}

// New starts a session with the pin and map centered on start. locator may
// be nil when no device position is available.
func New(ctx context.Context, geocoder Geocoder, locator Locator, start models.Coordinate, address string) *Controller {
	sessionCtx, cancel := context.WithCancel(ctx)
	return &Controller{
		geocoder: geocoder,
		locator:  locator,
		ctx:      sessionCtx,
		cancel:   cancel,
		state: PinState{
			State:   StateIdle,
			Center:  start,
			Pin:     start,
			Address: address,
		},
	}
}

// Open asks the device for its current position in the background so that
// UseCurrentLocation has a fix to work with. The pin does not move.
func (c *Controller) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.locator == nil {
		return nil
	}

	// A failure is only reported while no geocode has been issued since.
	seq := c.seq
	c.dispatch(func(ctx context.Context) {
		if _, err := c.locator.RequestCurrentLocation(ctx); err != nil {
			log.Printf("Current location request failed: %v", err)
			c.apply(seq, func(s *PinState) {
				s.State = StateError
				s.ErrorMessage = errorMessage(err)
			})
		}
	})
	return nil
}

// PinMoved handles the end of a pin drag.
func (c *Controller) PinMoved(coord models.Coordinate) error {
	if err := coord.Validate(); err != nil {
		return err
	}
	return c.movePin(coord, false)
}

// UseCurrentLocation moves the pin and map center to the last known device
// position. It reports false, changing nothing, when no fix is known yet.
func (c *Controller) UseCurrentLocation() (bool, error) {
	if c.Closed() {
		return false, ErrClosed
	}
	if c.locator == nil {
		return false, nil
	}
	coord, ok := c.locator.LastLocation()
	if !ok {
		return false, nil
	}
	if err := c.movePin(coord, true); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) movePin(coord models.Coordinate, recenter bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.state.Pin = coord
	if recenter {
		c.state.Center = coord
	}
	c.state.State = StateSyncing
	seq := c.nextSeqLocked()
	c.mu.Unlock()

	c.dispatch(func(ctx context.Context) {
		label, err := c.geocoder.Reverse(ctx, coord)
		c.apply(seq, func(s *PinState) {
			if err != nil {
				s.State = StateError
				s.ErrorMessage = errorMessage(err)
				return
			}
			s.Address = label
			s.State = StateSettled
			s.ErrorMessage = ""
		})
	})
	return nil
}

// RegionChanged records where the map is looking. It never geocodes.
func (c *Controller) RegionChanged(center models.Coordinate) error {
	if err := center.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.state.Center = center
	return nil
}

// EditAddress stores text the user is still typing.
func (c *Controller) EditAddress(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.state.Address = text
	return nil
}

// CommitAddress handles submission of the address field.
func (c *Controller) CommitAddress(text string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.state.Address = text
	c.state.State = StateSyncing
	seq := c.nextSeqLocked()
	c.mu.Unlock()

	c.dispatch(func(ctx context.Context) {
		coord, err := c.geocoder.Forward(ctx, text)
		c.apply(seq, func(s *PinState) {
			if err != nil {
				s.State = StateError
				s.ErrorMessage = errorMessage(err)
				return
			}
			s.Pin = coord
			s.Center = coord
			s.State = StateSettled
			s.ErrorMessage = ""
		})
	})
	return nil
}

// Confirm ends the session and returns the chosen location. It is allowed in
// every state, including while a request is in flight or after a failure.
func (c *Controller) Confirm() (models.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return models.Location{}, ErrClosed
	}
	address := c.state.Address
	if strings.TrimSpace(address) == "" {
		address = FallbackAddress
	}
	loc := models.NewLocation(c.state.Pin, address)
	c.closeLocked()
	return loc, nil
}

// Cancel ends the session without producing a location.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) State() PinState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Wait blocks until every request started so far has finished.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
}

func (c *Controller) nextSeqLocked() uint64 {
	c.seq++
	return c.seq
}

func (c *Controller) dispatch(fn func(ctx context.Context)) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		fn(c.ctx)
	}()
}

// apply writes a geocoding result unless the session is closed or a newer
// request has been issued since.
func (c *Controller) apply(seq uint64, fn func(*PinState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if seq != c.seq {
		log.Printf("Dropping stale geocoding result %d (latest %d)", seq, c.seq)
		return
	}
	fn(&c.state)
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, location.ErrNotFound):
		return "Location not found."
	case errors.Is(err, devicelocation.ErrPermissionDenied):
		return "Location permission denied."
	case errors.Is(err, devicelocation.ErrUnavailable):
		return "Current location unavailable."
	default:
		return fmt.Sprintf("Geocoding failed: %v", err)
	}
}
