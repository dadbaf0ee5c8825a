package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/cache"
)

// DefaultLocalCredentialsKey is the cache key of the credential map.
const DefaultLocalCredentialsKey = "localCredentials"

// ErrLocalCredentialsUnavailable wraps cache failures.
var ErrLocalCredentialsUnavailable = errors.New("local credentials store unavailable")

// PasswordHasher is the subset of password.Argon2 used here.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	NeedsUpgrade(encodedHash string) (bool, error)
}

// LocalCredentials remembers password hashes for sessions that were
// established without the identity provider, so a later password change on
// such a session can be checked against something.
type LocalCredentials struct {
	store  cache.Store
	key    string
	hasher PasswordHasher
	log    *zap.Logger

	mu sync.Mutex
}

// NewLocalCredentials returns a store over c. An empty key selects
// DefaultLocalCredentialsKey.
func NewLocalCredentials(c cache.Store, key string, hasher PasswordHasher, log *zap.Logger) *LocalCredentials {
	if key == "" {
		key = DefaultLocalCredentialsKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalCredentials{store: c, key: key, hasher: hasher, log: log}
}

// Remember stores a hash of password for email unless one already exists.
// It reports whether a new hash was written.
func (l *LocalCredentials) Remember(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := m[email]; ok {
		return false, nil
	}

	hash, err := l.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	m[email] = hash
	return true, l.save(ctx, m)
}

// Verify checks password against the stored hash. known is false when no
// hash exists for email. A matching hash made with weaker parameters than
// the hasher's is replaced.
func (l *LocalCredentials) Verify(ctx context.Context, email, password string) (known, ok bool, err error) {
	l.mu.Lock()
	m, err := l.load(ctx)
	l.mu.Unlock()
	if err != nil {
		return false, false, err
	}

	hash, exists := m[email]
	if !exists {
		return false, false, nil
	}
	match, err := l.hasher.Verify(password, hash)
	if err != nil {
		l.log.Warn("unreadable local credential hash", zap.Error(err))
		return false, false, nil
	}
	if match {
		l.upgrade(ctx, email, password, hash)
	}
	return true, match, nil
}

func (l *LocalCredentials) upgrade(ctx context.Context, email, password, old string) {
	if up, err := l.hasher.NeedsUpgrade(old); err != nil || !up {
		return
	}
	next, err := l.hasher.Hash(password)
	if err != nil {
		l.log.Warn("local credential rehash failed", zap.Error(err))
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	m, err := l.load(ctx)
	if err != nil || m[email] != old {
		return
	}
	m[email] = next
	if err := l.save(ctx, m); err != nil {
		l.log.Warn("local credential rehash not saved", zap.Error(err))
	}
}

// Update moves the entry of oldEmail to newEmail and, when newPassword is
// non-empty, replaces its hash. Missing entries are created only when a new
// password is given.
func (l *LocalCredentials) Update(ctx context.Context, oldEmail, newEmail, newPassword string) error {
	if newEmail == "" {
		newEmail = oldEmail
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	m, err := l.load(ctx)
	if err != nil {
		return err
	}

	hash, exists := m[oldEmail]
	if newPassword != "" {
		hash, err = l.hasher.Hash(newPassword)
		if err != nil {
			return err
		}
		exists = true
	}
	if !exists {
		return nil
	}
	if oldEmail != newEmail {
		delete(m, oldEmail)
	}
	m[newEmail] = hash
	return l.save(ctx, m)
}

func (l *LocalCredentials) load(ctx context.Context) (map[string]string, error) {
	raw, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrLocalCredentialsUnavailable, err)
	}

	m := map[string]string{}
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		l.log.Warn("discarding malformed local credentials", zap.Error(err))
		if delErr := l.store.Delete(ctx, l.key); delErr != nil {
			l.log.Warn("failed to delete malformed local credentials", zap.Error(delErr))
		}
		return map[string]string{}, nil
	}
	return m, nil
}

func (l *LocalCredentials) save(ctx context.Context, m map[string]string) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := l.store.Set(ctx, l.key, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrLocalCredentialsUnavailable, err)
	}
	return nil
}
