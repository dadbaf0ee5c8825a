package cache

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("cache: key not found")
	// ErrUnavailable wraps backend failures (I/O, network, closed client).
	ErrUnavailable = errors.New("cache: backend unavailable")
)

// Store is a synchronous get/set/delete key-value capability.
//
// Implementations must return ErrNotFound for missing keys and must make a
// successful Set visible to every later Get on the same Store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
