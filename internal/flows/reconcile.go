package flows

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/recipeauth/identity"
	"github.com/MrEthical07/recipeauth/session"
)

// ResolveState is the reconciliation phase of a Reconciler.
type ResolveState int32

const (
	// Unresolved is the initial state; no probe has completed.
	Unresolved ResolveState = iota
	// Resolving means a provider probe or listener setup is in flight.
	Resolving
	// Resolved means the last probe or notification has been applied.
	Resolved
)

// String returns the lower-case state name.
func (s ResolveState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// ReconcilerMetrics carries metric IDs used by reconciliation.
type ReconcilerMetrics struct {
	SessionResolved        int
	SessionResolveFallback int
	CacheCorruptionHealed  int
	ProviderNotification   int
}

// ReconcilerErrors carries host-level errors used by reconciliation.
type ReconcilerErrors struct {
	EngineNotReady      error
	ProviderUnavailable error
	Persistence         func(error) error
}

// ReconcilerDeps captures reconciliation dependencies. A nil Provider means
// the identity provider is not configured.
type ReconcilerDeps struct {
	Provider        identity.Provider
	State           *SessionState
	CallTimeout     time.Duration
	Now             func() time.Time
	Logger          *zap.Logger
	MetricInc       func(int)
	ObserveProvider func(time.Duration)

	Metrics ReconcilerMetrics
	Errors  ReconcilerErrors
}

// Reconciler decides which session is current by merging the provider's view
// with the session cache.
type Reconciler struct {
	deps ReconcilerDeps

	phase atomic.Int32
	mu    sync.Mutex
}

// NewReconciler returns a Reconciler in the Unresolved state.
func NewReconciler(deps ReconcilerDeps) *Reconciler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Errors.Persistence == nil {
		deps.Errors.Persistence = func(err error) error { return err }
	}
	return &Reconciler{deps: deps}
}

// State reports the current reconciliation phase.
func (r *Reconciler) State() ResolveState {
	return ResolveState(r.phase.Load())
}

// Resolve probes the provider and falls back to the cache. It returns nil
// when no authenticated session exists.
func (r *Reconciler) Resolve(ctx context.Context) (*session.Session, error) {
	if r.deps.State == nil {
		return nil, r.deps.Errors.EngineNotReady
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.State()
	r.phase.Store(int32(Resolving))

	rec, err := r.resolve(ctx)
	if err != nil {
		r.phase.Store(int32(prev))
		return nil, err
	}
	r.phase.Store(int32(Resolved))
	return rec, nil
}

func (r *Reconciler) resolve(ctx context.Context) (*session.Session, error) {
	d := r.deps

	if d.Provider != nil {
		pr, err := callProvider(ctx, d.CallTimeout, d.ObserveProvider, d.Provider.Current)
		switch {
		case err == nil && pr != nil:
			if rec, ok := r.remoteRecord(pr); ok {
				if err := d.State.Establish(ctx, rec); err != nil {
					return nil, d.Errors.Persistence(err)
				}
				d.MetricInc(d.Metrics.SessionResolved)
				return rec, nil
			}
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			d.Logger.Warn("identity provider unavailable; using cached session",
				zap.String("class", identity.Classify(err).String()),
				zap.Error(err),
			)
		}
	}

	d.MetricInc(d.Metrics.SessionResolveFallback)
	return r.restore(ctx)
}

func (r *Reconciler) restore(ctx context.Context) (*session.Session, error) {
	d := r.deps
	rec, healed, err := d.State.Restore(ctx)
	if healed {
		d.MetricInc(d.Metrics.CacheCorruptionHealed)
	}
	if err != nil {
		return nil, d.Errors.Persistence(err)
	}
	if rec != nil {
		d.MetricInc(d.Metrics.SessionResolved)
	}
	return rec, nil
}

func (r *Reconciler) remoteRecord(pr *identity.Principal) (*session.Session, bool) {
	rec := sessionFromPrincipal(pr, "", r.deps.Now())
	if !rec.Valid() {
		r.deps.Logger.Warn("identity provider reported a principal without email",
			zap.String("uid", pr.UID),
		)
		return nil, false
	}
	return rec, true
}

// Watch subscribes to provider session changes. Each notification re-runs
// reconciliation: a principal is persisted as the current remote session and
// a sign-out falls back to the cache. The subscription ends when ctx is done
// or stop is called; notifications after that are dropped.
func (r *Reconciler) Watch(ctx context.Context) (stop func(), err error) {
	if r.deps.State == nil {
		return nil, r.deps.Errors.EngineNotReady
	}
	if r.deps.Provider == nil {
		return nil, r.deps.Errors.ProviderUnavailable
	}

	var stopped atomic.Bool
	writeCtx := context.WithoutCancel(ctx)

	r.phase.CompareAndSwap(int32(Unresolved), int32(Resolving))
	unsubscribe := r.deps.Provider.Subscribe(func(pr *identity.Principal) {
		if stopped.Load() {
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if stopped.Load() {
			return
		}
		r.apply(writeCtx, pr)
	})

	var once sync.Once
	done := make(chan struct{})
	stop = func() {
		once.Do(func() {
			stopped.Store(true)
			unsubscribe()
			close(done)
			// Wait out a notification already past the stopped check.
			r.mu.Lock()
			r.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()

	return stop, nil
}

func (r *Reconciler) apply(ctx context.Context, pr *identity.Principal) {
	d := r.deps
	d.MetricInc(d.Metrics.ProviderNotification)
	r.phase.Store(int32(Resolving))

	if d.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.CallTimeout)
		defer cancel()
	}

	if pr != nil {
		if rec, ok := r.remoteRecord(pr); ok {
			if err := d.State.Establish(ctx, rec); err != nil {
				d.Logger.Warn("failed to persist notified session", zap.Error(err))
			} else {
				d.MetricInc(d.Metrics.SessionResolved)
			}
			r.phase.Store(int32(Resolved))
			return
		}
	}

	if _, err := r.restore(ctx); err != nil {
		d.Logger.Warn("failed to restore cached session after provider sign-out", zap.Error(err))
	}
	r.phase.Store(int32(Resolved))
}
