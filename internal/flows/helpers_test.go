package flows

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/MrEthical07/recipeauth/cache"
	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/identity/memory"
	"github.com/MrEthical07/recipeauth/session"
)

var errStoreDown = errors.New("store down")

// flakyStore wraps a cache.Store and fails writes on demand.
type flakyStore struct {
	cache.Store
	failSet    atomic.Bool
	failDelete atomic.Bool
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet.Load() {
		return errStoreDown
	}
	return f.Store.Set(ctx, key, value)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	if f.failDelete.Load() {
		return errStoreDown
	}
	return f.Store.Delete(ctx, key)
}

type fixture struct {
	store    *flakyStore
	cache    *session.Cache
	state    *SessionState
	provider *memory.Provider
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p, err := memory.New()
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	store := &flakyStore{Store: cache.NewMemory()}
	c := session.NewCache(store, "", zaptest.NewLogger(t))
	return &fixture{
		store:    store,
		cache:    c,
		state:    NewSessionState(c),
		provider: p,
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) sessionDeps(t *testing.T) SessionDeps {
	return SessionDeps{
		Provider:    f.provider,
		State:       f.state,
		CallTimeout: time.Second,
		Now:         func() time.Time { return f.now },
		Logger:      zaptest.NewLogger(t),
	}
}

func (f *fixture) cached(t *testing.T) *session.Session {
	t.Helper()
	s, _, err := f.cache.Load(context.Background())
	if err != nil {
		t.Fatalf("cache.Load: %v", err)
	}
	return s
}

// panicProvider panics on every call.
type panicProvider struct{ identity.Provider }

func (panicProvider) SignIn(context.Context, string, string) (*identity.Principal, error) {
	panic("sdk not loaded")
}

func (panicProvider) SignUp(context.Context, string, string) (*identity.Principal, error) {
	panic("sdk not loaded")
}

func (panicProvider) SignOut(context.Context) error { panic("sdk not loaded") }

func (panicProvider) SendPasswordReset(context.Context, string) error { panic("sdk not loaded") }

func (panicProvider) Current(context.Context) (*identity.Principal, error) {
	panic("sdk not loaded")
}
