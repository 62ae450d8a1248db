package notification

import (
	"context"
	"time"
)

// EventTypeRiskAlert is the event type carried by pipeline alerts; recipients
// with an event-type filter must include it to receive them.
const EventTypeRiskAlert = "risk_alert"

// NotificationPreference is a user's stored delivery configuration. Owned by
// the preferences collaborator; read-only here.
type NotificationPreference struct {
	UserID      string     `json:"user_id"`
	Email       string     `json:"email,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	WebhookURL  string     `json:"webhook_url,omitempty"`
	Channels    []Channel  `json:"channels"`
	EventTypes  []string   `json:"event_types,omitempty"`
	MuteUntil   *time.Time `json:"mute_until,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasChannel reports whether the user enabled the channel.
func (p *NotificationPreference) HasChannel(c Channel) bool {
	for _, enabled := range p.Channels {
		if enabled == c {
			return true
		}
	}
	return false
}

// IsMuted reports whether the user has muted notifications past now.
func (p *NotificationPreference) IsMuted(now time.Time) bool {
	return p.MuteUntil != nil && p.MuteUntil.After(now)
}

// WantsEventType reports whether the user's event-type filter admits the
// given type. An empty filter admits everything.
func (p *NotificationPreference) WantsEventType(eventType string) bool {
	if len(p.EventTypes) == 0 {
		return true
	}
	for _, t := range p.EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// PreferenceRepository reads stored notification preferences.
type PreferenceRepository interface {
	// ListSubscribed returns every preference record with at least one
	// enabled channel.
	ListSubscribed(ctx context.Context) ([]*NotificationPreference, error)
	// GetByUserID returns a single user's record, or nil when none exists.
	GetByUserID(ctx context.Context, userID string) (*NotificationPreference, error)
}
