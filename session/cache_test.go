package session

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/MrEthical07/recipeauth/cache"
)

func newRedisCacheTest(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewCache(cache.NewRedis(rdb, "ra"), "", zaptest.NewLogger(t)), mr
}

func TestCacheSaveLoadClear(t *testing.T) {
	c, mr := newRedisCacheTest(t)
	ctx := context.Background()

	s, healed, err := c.Load(ctx)
	if err != nil || s != nil || healed {
		t.Fatalf("expected empty cache, got %+v healed=%v err=%v", s, healed, err)
	}

	in := &Session{Email: "a@x.co", Authenticated: true, Provider: ProviderLocal}
	if err := c.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("ra:" + DefaultKey) {
		t.Fatalf("expected record under %q", "ra:"+DefaultKey)
	}

	out, _, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Email != in.Email || out.Provider != ProviderLocal {
		t.Fatalf("unexpected record %+v", out)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("second clear should be idempotent: %v", err)
	}
	if out, _, _ := c.Load(ctx); out != nil {
		t.Fatalf("expected nil after clear, got %+v", out)
	}
}

func TestCacheLoadHealsCorruptRecord(t *testing.T) {
	c, mr := newRedisCacheTest(t)
	ctx := context.Background()

	if err := mr.Set("ra:"+DefaultKey, "{{{"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, healed, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("corrupt record must not surface an error: %v", err)
	}
	if s != nil || !healed {
		t.Fatalf("expected nil record and healed=true, got %+v healed=%v", s, healed)
	}
	if mr.Exists("ra:" + DefaultKey) {
		t.Fatalf("corrupt record should have been deleted")
	}
}

func TestCacheLoadAuthenticatedIgnoresLoggedOutRecord(t *testing.T) {
	store := cache.NewMemory()
	c := NewCache(store, "", nil)
	ctx := context.Background()

	if err := c.Save(ctx, &Session{Email: "a@x.co", Provider: ProviderLocal}); err != nil {
		t.Fatalf("save: %v", err)
	}
	s, _, err := c.LoadAuthenticated(ctx)
	if err != nil || s != nil {
		t.Fatalf("expected no authenticated session, got %+v err=%v", s, err)
	}
}

func TestCacheStorageFailureIsWrapped(t *testing.T) {
	c, mr := newRedisCacheTest(t)
	mr.Close()

	_, _, err := c.Load(context.Background())
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	err = c.Save(context.Background(), &Session{Email: "a@x.co", Provider: ProviderLocal})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		s    *Session
		want string
	}{
		{s: nil, want: ""},
		{s: &Session{Email: "chef@x.co"}, want: "chef"},
		{s: &Session{Email: "chef@x.co", DisplayName: "  "}, want: "chef"},
		{s: &Session{Email: "chef@x.co", DisplayName: "Gordon"}, want: "Gordon"},
	}
	for _, tt := range tests {
		if got := tt.s.Label(); got != tt.want {
			t.Fatalf("Label() = %q, want %q", got, tt.want)
		}
	}
}
