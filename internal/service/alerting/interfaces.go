package alerting

import (
	"context"
	"time"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/notification"
)

// Service resolves alert recipients and dispatches multi-channel alerts
type Service interface {
	// ResolveRecipients maps a run to its delivery targets. An explicit
	// userID scopes the run to that single user; otherwise every
	// subscribed user is a recipient.
	ResolveRecipients(ctx context.Context, userID string) ([]*Recipient, error)
	// Dispatch attempts delivery on each of the recipient's resolved
	// channels. Failures are captured in the result, never returned.
	Dispatch(ctx context.Context, recipient *Recipient, title, message string) *DispatchResult
}

// EmailSender delivers an alert over email
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers an alert over SMS
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// InAppSender delivers an alert to a user's live in-app session
type InAppSender interface {
	SendInApp(ctx context.Context, userID, title, body string) error
}

// WebhookSender posts an alert payload to a user-configured URL
type WebhookSender interface {
	SendWebhook(ctx context.Context, url string, payload interface{}) error
}

// Senders bundles the configured channel senders. A nil sender means the
// channel is not configured in this deployment.
type Senders struct {
	Email   EmailSender
	SMS     SMSSender
	InApp   InAppSender
	Webhook WebhookSender
}

// Recipient is one resolved delivery target for a run
type Recipient struct {
	UserID     string
	Preference *notification.NotificationPreference
	// Channels is the intersection of the user's enabled channels and the
	// channels this pipeline supports sending
	Channels []notification.Channel
}

// ChannelResult records a single delivery attempt
type ChannelResult struct {
	Channel  notification.Channel
	Success  bool
	Error    string
	Duration time.Duration
}

// DispatchResult aggregates per-channel outcomes for one recipient
type DispatchResult struct {
	UserID   string
	Results  []ChannelResult
	Duration time.Duration
}

// Delivered returns the number of successful channel sends
func (r *DispatchResult) Delivered() int {
	n := 0
	for _, cr := range r.Results {
		if cr.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed channel sends
func (r *DispatchResult) Failed() int {
	return len(r.Results) - r.Delivered()
}

// WebhookPayload is the JSON body posted to webhook recipients
type WebhookPayload struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Config tunes the dispatcher
type Config struct {
	// SendTimeout bounds each individual channel send
	SendTimeout time.Duration
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{SendTimeout: 10 * time.Second}
}
