package flows

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/session"
)

func (f *fixture) reconciler(t *testing.T, p identity.Provider) *Reconciler {
	return NewReconciler(ReconcilerDeps{
		Provider:    p,
		State:       f.state,
		CallTimeout: time.Second,
		Now:         func() time.Time { return f.now },
		Logger:      zaptest.NewLogger(t),
	})
}

func TestResolveRemotePrincipalIsPersisted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pr, err := f.provider.SignUp(ctx, "u@x.com", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	r := f.reconciler(t, f.provider)
	if r.State() != Unresolved {
		t.Fatalf("initial state = %s", r.State())
	}
	s, err := r.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s == nil || s.ID != pr.UID || s.Provider != session.ProviderRemote {
		t.Fatalf("unexpected session: %+v", s)
	}
	if r.State() != Resolved {
		t.Fatalf("state = %s, want resolved", r.State())
	}
	if got := f.cached(t); got == nil || got.ID != pr.UID {
		t.Fatalf("remote session not persisted: %+v", got)
	}
}

func TestResolveFallsBackToCachedLocalSession(t *testing.T) {
	tests := []struct {
		name     string
		provider func(f *fixture) identity.Provider
	}{
		{name: "outage", provider: func(f *fixture) identity.Provider {
			f.provider.SetUnavailable(true)
			return f.provider
		}},
		{name: "not configured", provider: func(*fixture) identity.Provider { return nil }},
		{name: "panicking sdk", provider: func(*fixture) identity.Provider { return panicProvider{} }},
		{name: "signed out remotely", provider: func(f *fixture) identity.Provider { return f.provider }},
	}

	records := map[string]string{
		"versioned": `{"v":2,"email":"a@b.com","isAuthenticated":true,"provider":"local","establishedAt":"2026-02-01T00:00:00Z"}`,
		"bare":      `{"isAuthenticated":true,"email":"a@b.com"}`,
	}

	for _, tt := range tests {
		for shape, raw := range records {
			t.Run(tt.name+"/"+shape, func(t *testing.T) {
				f := newFixture(t)
				ctx := context.Background()
				if err := f.store.Set(ctx, session.DefaultKey, []byte(raw)); err != nil {
					t.Fatalf("Set: %v", err)
				}

				s, err := f.reconciler(t, tt.provider(f)).Resolve(ctx)
				if err != nil {
					t.Fatalf("Resolve: %v", err)
				}
				if s == nil || s.Email != "a@b.com" || !s.Authenticated || s.Provider != session.ProviderLocal {
					t.Fatalf("unexpected session: %+v", s)
				}
				if cur := f.state.Current(); cur == nil || cur.Email != "a@b.com" {
					t.Fatalf("memory not restored: %+v", cur)
				}
			})
		}
	}
}

func TestResolveIgnoresUnauthenticatedRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := []byte(`{"v":2,"email":"a@b.com","isAuthenticated":false,"provider":"local","establishedAt":"2026-02-01T00:00:00Z"}`)
	if err := f.store.Set(ctx, session.DefaultKey, raw); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s, err := f.reconciler(t, nil).Resolve(ctx)
	if err != nil || s != nil {
		t.Fatalf("Resolve = %+v, %v; want nil, nil", s, err)
	}
	if _, err := f.store.Get(ctx, session.DefaultKey); err != nil {
		t.Fatalf("parseable record must not be deleted: %v", err)
	}
}

func TestResolveDeletesCorruptCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.store.Set(ctx, session.DefaultKey, []byte("{not json")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var healed int
	r := NewReconciler(ReconcilerDeps{
		State:     f.state,
		Logger:    zaptest.NewLogger(t),
		MetricInc: func(id int) { healed += id },
		Metrics:   ReconcilerMetrics{CacheCorruptionHealed: 1},
	})
	s, err := r.Resolve(ctx)
	if err != nil || s != nil {
		t.Fatalf("Resolve = %+v, %v; want nil, nil", s, err)
	}
	if healed != 1 {
		t.Fatalf("expected heal metric once, got %d", healed)
	}
	if _, err := f.store.Get(ctx, session.DefaultKey); err == nil {
		t.Fatal("corrupt entry must be deleted")
	}
}

func TestWatchAppliesNotifications(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := f.reconciler(t, f.provider)
	stop, err := r.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	f.provider.Emit(&identity.Principal{UID: "uid-1", Email: "u@x.com", DisplayName: "Ann"})
	if got := f.cached(t); got == nil || got.ID != "uid-1" || got.DisplayName != "Ann" {
		t.Fatalf("notification not persisted: %+v", got)
	}
	if r.State() != Resolved {
		t.Fatalf("state = %s, want resolved", r.State())
	}

	// Sign-out falls back to whatever the cache holds.
	f.provider.Emit(nil)
	if cur := f.state.Current(); cur == nil || cur.ID != "uid-1" {
		t.Fatalf("sign-out notification should restore the cached record, got %+v", cur)
	}
}

// heldProvider keeps listeners after unsubscribe to simulate late callbacks.
type heldProvider struct {
	identity.Provider
	mu        sync.Mutex
	listeners []func(*identity.Principal)
}

func (h *heldProvider) Subscribe(fn func(*identity.Principal)) func() {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
	return func() {}
}

func (h *heldProvider) fire(pr *identity.Principal) {
	h.mu.Lock()
	fns := slices.Clone(h.listeners)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(pr)
	}
}

func TestWatchTeardownDropsLateNotifications(t *testing.T) {
	f := newFixture(t)
	p := &heldProvider{}
	r := f.reconciler(t, p)

	stop, err := r.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	stop()
	stop()

	p.fire(&identity.Principal{UID: "late", Email: "late@x.com"})
	if got := f.cached(t); got != nil {
		t.Fatalf("late notification applied: %+v", got)
	}
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	f := newFixture(t)
	p := &heldProvider{}
	r := f.reconciler(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := r.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for {
		p.fire(&identity.Principal{UID: "late", Email: "late@x.com"})
		if f.cached(t) == nil {
			break
		}
		// The watcher goroutine may not have observed cancellation yet.
		if err := f.state.Clear(context.Background()); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("notifications still applied after cancellation")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatchWithoutProvider(t *testing.T) {
	f := newFixture(t)
	r := NewReconciler(ReconcilerDeps{
		State:  f.state,
		Errors: ReconcilerErrors{ProviderUnavailable: identity.ErrUnavailable},
	})
	if _, err := r.Watch(context.Background()); err != identity.ErrUnavailable {
		t.Fatalf("expected identity.ErrUnavailable, got %v", err)
	}
}
