package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/notification"
)

// PreferenceRepository reads stored notification preferences from PostgreSQL.
// Channels and event types are stored as text arrays; unknown channel names
// are dropped on read so a stale row cannot break a run.
type PreferenceRepository struct {
	db *pgxpool.Pool
}

// NewPreferenceRepository creates a new PostgreSQL-backed preference repository
func NewPreferenceRepository(db *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// ListSubscribed returns every preference record with at least one enabled
// channel.
func (r *PreferenceRepository) ListSubscribed(ctx context.Context) ([]*notification.NotificationPreference, error) {
	query := `
		SELECT user_id, email, phone_number, webhook_url,
		       channels, event_types, mute_until, updated_at
		FROM notification_preferences
		WHERE cardinality(channels) > 0
		ORDER BY user_id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*notification.NotificationPreference
	for rows.Next() {
		pref, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, pref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification preferences: %w", err)
	}

	return prefs, nil
}

// GetByUserID returns a single user's record, or nil when none exists.
func (r *PreferenceRepository) GetByUserID(ctx context.Context, userID string) (*notification.NotificationPreference, error) {
	query := `
		SELECT user_id, email, phone_number, webhook_url,
		       channels, event_types, mute_until, updated_at
		FROM notification_preferences
		WHERE user_id = $1`

	pref, err := scanPreference(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return pref, nil
}

// Upsert writes a preference record. Only the migrator seed and tests use it.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *notification.NotificationPreference) error {
	channels := make([]string, 0, len(pref.Channels))
	for _, c := range pref.Channels {
		channels = append(channels, c.String())
	}
	eventTypes := pref.EventTypes
	if eventTypes == nil {
		eventTypes = []string{}
	}

	query := `
		INSERT INTO notification_preferences (
			user_id, email, phone_number, webhook_url,
			channels, event_types, mute_until, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			phone_number = EXCLUDED.phone_number,
			webhook_url = EXCLUDED.webhook_url,
			channels = EXCLUDED.channels,
			event_types = EXCLUDED.event_types,
			mute_until = EXCLUDED.mute_until,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		pref.UserID,
		pref.Email,
		pref.PhoneNumber,
		pref.WebhookURL,
		channels,
		eventTypes,
		pref.MuteUntil,
		pref.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert notification preference: %w", err)
	}

	return nil
}

func scanPreference(row pgx.Row) (*notification.NotificationPreference, error) {
	pref := &notification.NotificationPreference{}
	var channels []string
	var eventTypes []string

	err := row.Scan(
		&pref.UserID,
		&pref.Email,
		&pref.PhoneNumber,
		&pref.WebhookURL,
		&channels,
		&eventTypes,
		&pref.MuteUntil,
		&pref.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, name := range channels {
		channel, err := notification.ParseChannel(name)
		if err != nil {
			continue
		}
		pref.Channels = append(pref.Channels, channel)
	}
	pref.EventTypes = eventTypes

	return pref, nil
}
