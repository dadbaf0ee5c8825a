package recipeauth

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/cache"
	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/internal/flows"
	"github.com/MrEthical07/recipeauth/internal/security"
	"github.com/MrEthical07/recipeauth/internal/stores"
	"github.com/MrEthical07/recipeauth/ledger"
	"github.com/MrEthical07/recipeauth/password"
	"github.com/MrEthical07/recipeauth/session"
)

// Builder defines a public type used by recipeauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	store    cache.Store
	redis    redis.UniversalClient
	provider identity.Provider

	auditSink AuditSink
	logger    *zap.Logger
	now       func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore describes the withstore operation and its observable behavior.
//
// WithStore sets the cache store holding the session record, the change
// ledger and local credentials. It takes precedence over WithRedis.
func (b *Builder) WithStore(store cache.Store) *Builder {
	b.store = store
	return b
}

// WithRedis backs the engine with Redis, with keys namespaced by
// Config.Session.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithProvider describes the withprovider operation and its observable behavior.
//
// WithProvider sets the identity provider. Without one, every session is
// local and password resets report the provider as not configured.
func (b *Builder) WithProvider(p identity.Provider) *Builder {
	b.provider = p
	return b
}

// WithAuditSink sets the destination of audit events. It has no effect
// unless Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.logger = log
	return b
}

// WithClock replaces time.Now for the ledger, session timestamps and audit
// events.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms enables the provider latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration and wires the engine. A Builder can be
// used once. Without WithStore or WithRedis the engine keeps its state in
// process memory.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := b.logger
	if log == nil {
		log = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	store := b.store
	if store == nil && b.redis != nil {
		store = cache.NewRedis(b.redis, cfg.Session.RedisPrefix)
	}
	if store == nil {
		log.Warn("no cache store configured, account state will not survive a restart")
		store = cache.NewMemory()
	}

	hasher, err := password.NewArgon2(cfg.Password.hasherConfig())
	if err != nil {
		return nil, err
	}

	sessions := session.NewCache(store, cfg.Session.Key, log)

	e := &Engine{
		config:   cfg,
		store:    store,
		provider: b.provider,
		ledger: ledger.New(store, ledger.Config{
			Limit:  cfg.Ledger.Limit,
			Window: cfg.Ledger.Window,
			Key:    cfg.Ledger.Key,
		}, ledger.WithClock(now), ledger.WithLogger(log)),
		sessions:    sessions,
		state:       flows.NewSessionState(sessions),
		credentials: stores.NewLocalCredentials(store, cfg.Password.CredentialsKey, hasher, log),
		policy:      password.Policy{MinLength: cfg.Password.MinLength},
		metrics:     NewMetrics(cfg.Metrics),
		log:         log,
		now:         now,
	}
	if cfg.Account.SanitizeNames {
		e.sanitizer = security.NewDisplayNameSanitizer()
	}
	e.audit = newAuditDispatcher(cfg.Audit, b.auditSink, log)
	e.wireFlows()

	b.built = true
	return e, nil
}
