package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/cache"
)

// DefaultKey is the cache key of the current session record.
const DefaultKey = "currentSessionUser"

// ErrStorage wraps failures of the backing store.
var ErrStorage = errors.New("session storage unavailable")

// Cache persists the current session record under one key.
type Cache struct {
	store cache.Store
	key   string
	log   *zap.Logger
}

// NewCache returns a Cache over store. An empty key selects DefaultKey.
func NewCache(store cache.Store, key string, log *zap.Logger) *Cache {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{store: store, key: key, log: log}
}

// Key returns the cache key in use.
func (c *Cache) Key() string { return c.key }

// Load returns the cached record, or nil when none exists. Corrupt content is
// deleted and reported as absent; healed reports whether that happened.
func (c *Cache) Load(ctx context.Context) (s *Session, healed bool, err error) {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s, err = Decode(raw)
	if err != nil {
		c.log.Warn("discarding unreadable cached session",
			zap.String("key", c.key),
			zap.Error(err),
		)
		if delErr := c.store.Delete(ctx, c.key); delErr != nil {
			c.log.Warn("failed to delete unreadable cached session", zap.Error(delErr))
		}
		return nil, true, nil
	}
	return s, false, nil
}

// LoadAuthenticated is Load restricted to records flagged authenticated.
func (c *Cache) LoadAuthenticated(ctx context.Context) (*Session, bool, error) {
	s, healed, err := c.Load(ctx)
	if err != nil || s == nil {
		return nil, healed, err
	}
	if !s.Authenticated {
		return nil, healed, nil
	}
	return s, healed, nil
}

// Save overwrites the cached record.
func (c *Cache) Save(ctx context.Context, s *Session) error {
	raw, err := Encode(s)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.key, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Clear removes the cached record. Clearing an empty cache is not an error.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}
