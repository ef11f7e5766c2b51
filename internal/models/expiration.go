package models

import (
	"fmt"
	"time"
)

type Urgency string

const (
	UrgencyExpired  Urgency = "expired"
	UrgencyCritical Urgency = "critical"
	UrgencyWarning  Urgency = "warning"
	UrgencyFresh    Urgency = "fresh"
)

// ExpirationLabel renders the time left as shown on a post card.
func (p FoodPost) ExpirationLabel(now time.Time) string {
	remaining := p.ExpiresAt.Sub(now)
	switch {
	case remaining <= 0:
		return "Expired"
	case remaining < time.Hour:
		return fmt.Sprintf("%dm left", int(remaining/time.Minute))
	default:
		return fmt.Sprintf("%dh left", int(remaining/time.Hour))
	}
}

func (p FoodPost) Urgency(now time.Time) Urgency {
	remaining := p.ExpiresAt.Sub(now)
	switch {
	case remaining <= 0:
		return UrgencyExpired
	case remaining < time.Hour:
		return UrgencyCritical
	case remaining < 2*time.Hour:
		return UrgencyWarning
	default:
		return UrgencyFresh
	}
}
