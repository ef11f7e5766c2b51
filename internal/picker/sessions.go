package picker

import (
	"context"
	"sync"
	"time"

	"foodshare/models"

	"github.com/google/uuid"
)

// LocatorFactory returns the position provider for a device, or nil.
type LocatorFactory func(deviceID string) Locator

// Sessions tracks the open picker sessions of a process.
type Sessions struct {
	ctx      context.Context
	geocoder Geocoder
	locators LocatorFactory
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	controller *Controller
	lastSeen   time.Time
}

// NewSessions ties every session's lifetime to ctx.
func NewSessions(ctx context.Context, geocoder Geocoder, locators LocatorFactory) *Sessions {
	return &Sessions{
		ctx:      ctx,
		geocoder: geocoder,
		locators: locators,
		now:      time.Now,
		sessions: map[string]*session{},
	}
}

// Open creates a session and starts its current-location request.
func (s *Sessions) Open(deviceID string, start models.Coordinate, address string) (string, *Controller, error) {
	if err := start.Validate(); err != nil {
		return "", nil, err
	}
	var locator Locator
	if s.locators != nil && deviceID != "" {
		locator = s.locators(deviceID)
	}

	c := New(s.ctx, s.geocoder, locator, start, address)
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = &session{controller: c, lastSeen: s.now()}
	s.mu.Unlock()

	if err := c.Open(); err != nil {
		return "", nil, err
	}
	return id, c, nil
}

// Get returns the session's controller and marks the session as active.
func (s *Sessions) Get(id string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.controller, true
}

// Confirm finalizes and forgets the session.
func (s *Sessions) Confirm(id string) (models.Location, error) {
	c, ok := s.remove(id)
	if !ok {
		return models.Location{}, ErrClosed
	}
	return c.Confirm()
}

// Cancel discards the session. It reports whether the session existed.
func (s *Sessions) Cancel(id string) bool {
	c, ok := s.remove(id)
	if ok {
		c.Cancel()
	}
	return ok
}

// Expire cancels sessions that have not been touched for longer than maxAge
// and returns how many.
func (s *Sessions) Expire(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	var stale []*Controller
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			stale = append(stale, sess.controller)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, c := range stale {
		c.Cancel()
	}
	return len(stale)
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CloseAll cancels every open session.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	open := s.sessions
	s.sessions = map[string]*session{}
	s.mu.Unlock()

	for _, sess := range open {
		sess.controller.Cancel()
	}
}

func (s *Sessions) remove(id string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	delete(s.sessions, id)
	return sess.controller, true
}
