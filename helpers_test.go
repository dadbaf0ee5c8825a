package recipeauth

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/identity/memory"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// testConfig keeps argon2 at its floor so tests stay fast.
func testConfig() Config {
	cfg := defaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Provider.CallTimeout = 2 * time.Second
	return cfg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

type testEngine struct {
	*Engine
	redis    *miniredis.Miniredis
	rdb      *redis.Client
	provider *memory.Provider
	clock    *testClock
}

type engineOption func(*Builder)

func withSink(sink AuditSink) engineOption {
	return func(b *Builder) { b.WithAuditSink(sink) }
}

func newTestProvider(t *testing.T) *memory.Provider {
	t.Helper()
	p, err := memory.New()
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	return p
}

// buildTestEngine wires an engine over miniredis. A nil provider builds an
// engine without one.
func buildTestEngine(t *testing.T, cfg Config, provider identity.Provider, opts ...engineOption) *testEngine {
	t.Helper()

	mr, rdb := newTestRedis(t)
	clock := newTestClock()
	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(zaptest.NewLogger(t)).
		WithClock(clock.Now)
	if provider != nil {
		b.WithProvider(provider)
	}
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	te := &testEngine{Engine: engine, redis: mr, rdb: rdb, clock: clock}
	if p, ok := provider.(*memory.Provider); ok {
		te.provider = p
	}
	return te
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	return buildTestEngine(t, testConfig(), newTestProvider(t))
}

// rebuild returns a second engine over the same Redis, as after a restart.
func (te *testEngine) rebuild(t *testing.T, provider identity.Provider) *Engine {
	t.Helper()
	b := New().
		WithConfig(te.Config()).
		WithRedis(te.rdb).
		WithLogger(zaptest.NewLogger(t)).
		WithClock(te.clock.Now)
	if provider != nil {
		b.WithProvider(provider)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}
