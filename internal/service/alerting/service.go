package alerting

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/compliance"
	"github.com/davidleathers/compliance-risk-backend/internal/domain/errors"
	"github.com/davidleathers/compliance-risk-backend/internal/domain/notification"
)

// service implements the Service interface
type service struct {
	prefs   notification.PreferenceRepository
	senders Senders
	clock   compliance.Clock
	logger  *slog.Logger
	config  Config
}

// NewService creates a new alert delivery service
func NewService(
	prefs notification.PreferenceRepository,
	senders Senders,
	clock compliance.Clock,
	logger *slog.Logger,
	config Config,
) Service {
	if clock == nil {
		clock = compliance.RealClock{}
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = DefaultConfig().SendTimeout
	}

	return &service{
		prefs:   prefs,
		senders: senders,
		clock:   clock,
		logger:  logger,
		config:  config,
	}
}

// ResolveRecipients maps a run to its delivery targets.
func (s *service) ResolveRecipients(ctx context.Context, userID string) ([]*Recipient, error) {
	var prefs []*notification.NotificationPreference

	if userID != "" {
		pref, err := s.prefs.GetByUserID(ctx, userID)
		if err != nil {
			return nil, errors.NewInternalError("failed to load notification preference").WithCause(err)
		}
		if pref != nil {
			prefs = append(prefs, pref)
		}
	} else {
		subscribed, err := s.prefs.ListSubscribed(ctx)
		if err != nil {
			return nil, errors.NewInternalError("failed to list subscribed users").WithCause(err)
		}
		prefs = subscribed
	}

	now := s.clock.Now()
	recipients := make([]*Recipient, 0, len(prefs))
	for _, pref := range prefs {
		if pref.IsMuted(now) {
			s.logger.DebugContext(ctx, "recipient muted, skipping",
				"user_id", pref.UserID,
				"mute_until", pref.MuteUntil)
			continue
		}
		if !pref.WantsEventType(notification.EventTypeRiskAlert) {
			continue
		}

		// Channels the user did not enable, and channels this pipeline
		// cannot send on, are skipped silently.
		var channels []notification.Channel
		for _, c := range notification.SupportedChannels() {
			if pref.HasChannel(c) {
				channels = append(channels, c)
			}
		}
		if len(channels) == 0 {
			continue
		}

		recipients = append(recipients, &Recipient{
			UserID:     pref.UserID,
			Preference: pref,
			Channels:   channels,
		})
	}

	return recipients, nil
}

// Dispatch attempts delivery on every resolved channel. Each attempt is
// independent: one channel failing must not block the rest, and nothing is
// raised to the caller. At most one attempt per channel per run.
func (s *service) Dispatch(ctx context.Context, recipient *Recipient, title, message string) *DispatchResult {
	start := time.Now()
	result := &DispatchResult{UserID: recipient.UserID}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, channel := range recipient.Channels {
		wg.Add(1)
		go func(channel notification.Channel) {
			defer wg.Done()

			cr := s.sendOnChannel(ctx, channel, recipient, title, message)

			mu.Lock()
			result.Results = append(result.Results, cr)
			mu.Unlock()

			if cr.Success {
				s.logger.DebugContext(ctx, "alert delivered",
					"user_id", recipient.UserID,
					"channel", channel.String(),
					"duration", cr.Duration)
			} else {
				s.logger.ErrorContext(ctx, "alert delivery failed",
					"user_id", recipient.UserID,
					"channel", channel.String(),
					"error", cr.Error)
			}
		}(channel)
	}

	wg.Wait()
	result.Duration = time.Since(start)
	return result
}

func (s *service) sendOnChannel(ctx context.Context, channel notification.Channel, recipient *Recipient, title, message string) ChannelResult {
	start := time.Now()
	cr := ChannelResult{Channel: channel}

	sendCtx, cancel := context.WithTimeout(ctx, s.config.SendTimeout)
	defer cancel()

	var err error
	switch channel {
	case notification.ChannelEmail:
		if s.senders.Email == nil {
			err = errors.NewDeliveryError(channel.String(), "email sender not configured")
			break
		}
		err = s.senders.Email.SendEmail(sendCtx, recipient.Preference.Email, title, message)
	case notification.ChannelSMS:
		if s.senders.SMS == nil {
			err = errors.NewDeliveryError(channel.String(), "sms sender not configured")
			break
		}
		err = s.senders.SMS.SendSMS(sendCtx, recipient.Preference.PhoneNumber, message)
	case notification.ChannelInApp:
		if s.senders.InApp == nil {
			err = errors.NewDeliveryError(channel.String(), "in-app sender not configured")
			break
		}
		err = s.senders.InApp.SendInApp(sendCtx, recipient.UserID, title, message)
	case notification.ChannelWebhook:
		if s.senders.Webhook == nil {
			err = errors.NewDeliveryError(channel.String(), "webhook sender not configured")
			break
		}
		err = s.senders.Webhook.SendWebhook(sendCtx, recipient.Preference.WebhookURL, WebhookPayload{
			Type:      notification.EventTypeRiskAlert,
			Title:     title,
			Message:   message,
			Timestamp: s.clock.Now(),
		})
	default:
		err = errors.NewDeliveryError(channel.String(), "channel not supported for sending")
	}

	cr.Duration = time.Since(start)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}
	cr.Success = true
	return cr
}
