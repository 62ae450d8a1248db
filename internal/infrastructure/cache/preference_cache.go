package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/notification"
)

const (
	preferenceKeyPrefix = "crp:pref:"
	subscribedListKey   = "crp:pref:subscribed"
)

// PreferenceCache is a read-through cache over a PreferenceRepository. Cache
// failures degrade to the underlying store, never to an error.
type PreferenceCache struct {
	store  notification.PreferenceRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewPreferenceCache wraps a preference repository with Redis caching.
func NewPreferenceCache(store notification.PreferenceRepository, cache Cache, ttl time.Duration, logger *zap.Logger) *PreferenceCache {
	return &PreferenceCache{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// ListSubscribed returns the cached subscriber list, falling through to the
// store on a miss.
func (c *PreferenceCache) ListSubscribed(ctx context.Context) ([]*notification.NotificationPreference, error) {
	var cached []*notification.NotificationPreference
	err := c.cache.GetJSON(ctx, subscribedListKey, &cached)
	if err == nil {
		return cached, nil
	}
	var notFound ErrCacheKeyNotFound
	if !errors.As(err, &notFound) {
		c.logger.Warn("preference cache read failed, falling through",
			zap.String("key", subscribedListKey),
			zap.Error(err))
	}

	prefs, err := c.store.ListSubscribed(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetJSON(ctx, subscribedListKey, prefs, c.ttl); err != nil {
		c.logger.Warn("preference cache write failed",
			zap.String("key", subscribedListKey),
			zap.Error(err))
	}

	return prefs, nil
}

// GetByUserID returns a single user's cached record, falling through to the
// store on a miss. A store miss is cached as an empty record to absorb
// repeated lookups for unknown users.
func (c *PreferenceCache) GetByUserID(ctx context.Context, userID string) (*notification.NotificationPreference, error) {
	key := preferenceKeyPrefix + userID

	var cached notification.NotificationPreference
	err := c.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		if cached.UserID == "" {
			return nil, nil
		}
		return &cached, nil
	}
	var notFound ErrCacheKeyNotFound
	if !errors.As(err, &notFound) {
		c.logger.Warn("preference cache read failed, falling through",
			zap.String("key", key),
			zap.Error(err))
	}

	pref, err := c.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	toCache := pref
	if toCache == nil {
		toCache = &notification.NotificationPreference{}
	}
	if err := c.cache.SetJSON(ctx, key, toCache, c.ttl); err != nil {
		c.logger.Warn("preference cache write failed",
			zap.String("key", key),
			zap.Error(err))
	}

	return pref, nil
}

// Invalidate drops a user's cached record and the subscriber list.
func (c *PreferenceCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.cache.Delete(ctx, preferenceKeyPrefix+userID); err != nil {
		return fmt.Errorf("failed to invalidate preference for %s: %w", userID, err)
	}
	return c.cache.Delete(ctx, subscribedListKey)
}

// Refresh repopulates the subscriber list from the store. Scheduled
// periodically so preference edits surface within one refresh interval even
// without explicit invalidation.
func (c *PreferenceCache) Refresh(ctx context.Context) error {
	prefs, err := c.store.ListSubscribed(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh preference cache: %w", err)
	}

	if err := c.cache.SetJSON(ctx, subscribedListKey, prefs, c.ttl); err != nil {
		return fmt.Errorf("failed to write refreshed preferences: %w", err)
	}

	c.logger.Debug("preference cache refreshed", zap.Int("subscribers", len(prefs)))
	return nil
}
