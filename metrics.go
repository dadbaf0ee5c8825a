package recipeauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies an Engine counter or histogram.
//
// IDs are stable for the lifetime of a process and index fixed-size arrays.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that established a session.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected logins.
	MetricLoginFailure
	// MetricLoginFallback counts logins that fell back to a local session.
	MetricLoginFallback
	// MetricRegisterSuccess is an exported constant or variable used by the account engine.
	MetricRegisterSuccess
	// MetricRegisterFailure is an exported constant or variable used by the account engine.
	MetricRegisterFailure
	// MetricRegisterFallback is an exported constant or variable used by the account engine.
	MetricRegisterFallback
	// MetricLogout counts completed logouts.
	MetricLogout
	// MetricLogoutRemoteFailure counts swallowed provider sign-out failures.
	MetricLogoutRemoteFailure
	// MetricPasswordResetRequest is an exported constant or variable used by the account engine.
	MetricPasswordResetRequest
	// MetricPasswordResetUnconfigured counts resets requested while the provider was unavailable.
	MetricPasswordResetUnconfigured
	// MetricAccountUpdateSuccess is an exported constant or variable used by the account engine.
	MetricAccountUpdateSuccess
	// MetricAccountUpdateRejected is an exported constant or variable used by the account engine.
	MetricAccountUpdateRejected
	// MetricEmailChangeRecorded counts email changes written to the ledger.
	MetricEmailChangeRecorded
	// MetricPasswordChangeRecorded counts password changes written to the ledger.
	MetricPasswordChangeRecorded
	// MetricQuotaExceeded counts changes refused by the ledger.
	MetricQuotaExceeded
	// MetricSessionResolved is an exported constant or variable used by the account engine.
	MetricSessionResolved
	// MetricSessionResolveFallback counts resolutions served from the cache.
	MetricSessionResolveFallback
	// MetricCacheCorruptionHealed counts corrupt cached sessions that were deleted.
	MetricCacheCorruptionHealed
	// MetricProviderNotification counts provider session-change notifications.
	MetricProviderNotification
	// MetricProviderLatency is the latency histogram of identity provider calls.
	MetricProviderLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:              "login_success",
	MetricLoginFailure:              "login_failure",
	MetricLoginFallback:             "login_fallback",
	MetricRegisterSuccess:           "register_success",
	MetricRegisterFailure:           "register_failure",
	MetricRegisterFallback:          "register_fallback",
	MetricLogout:                    "logout",
	MetricLogoutRemoteFailure:       "logout_remote_failure",
	MetricPasswordResetRequest:      "password_reset_request",
	MetricPasswordResetUnconfigured: "password_reset_unconfigured",
	MetricAccountUpdateSuccess:      "account_update_success",
	MetricAccountUpdateRejected:     "account_update_rejected",
	MetricEmailChangeRecorded:       "email_change_recorded",
	MetricPasswordChangeRecorded:    "password_change_recorded",
	MetricQuotaExceeded:             "quota_exceeded",
	MetricSessionResolved:           "session_resolved",
	MetricSessionResolveFallback:    "session_resolve_fallback",
	MetricCacheCorruptionHealed:     "cache_corruption_healed",
	MetricProviderNotification:      "provider_notification",
	MetricProviderLatency:           "provider_latency",
}

// String returns the snake_case metric name used by exporters.
func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

// HistogramBounds returns the upper bounds of the latency buckets. The last
// bucket is unbounded.
func HistogramBounds() []time.Duration {
	out := make([]time.Duration, len(latencyBounds))
	copy(out, latencyBounds[:])
	return out
}

// counter sits on its own cache line so hot flows do not contend.
type counter struct {
	atomic.Uint64
	_ [56]byte
}

// latencyHistogram has one slot per bound plus an overflow slot.
type latencyHistogram [len(latencyBounds) + 1]atomic.Uint64

func (h *latencyHistogram) observe(d time.Duration) {
	slot := len(latencyBounds)
	for i, bound := range latencyBounds {
		if d <= bound {
			slot = i
			break
		}
	}
	h[slot].Add(1)
}

func (h *latencyHistogram) load() []uint64 {
	out := make([]uint64, len(h))
	for i := range h {
		out[i] = h[i].Load()
	}
	return out
}

// Metrics holds lock-free Engine counters and the provider latency
// histogram. The zero value records nothing.
type Metrics struct {
	enabled  bool
	latency  bool
	counters [metricIDCount]counter
	provider latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func emptySnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
}

// NewMetrics returns Metrics configured by cfg. Latency histograms are only
// recorded when counters are enabled too.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.latency
}

// Inc adds one to the counter id. It is a no-op on a nil or disabled Metrics
// and for unknown IDs.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d in the histogram of id. Only MetricProviderLatency has a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id != MetricProviderLatency {
		return
	}
	m.provider.observe(d)
}

// Value returns the current value of a counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies every counter and, when enabled, the latency histogram.
// Each value is read atomically; the set as a whole is not.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := emptySnapshot()
	if !m.Enabled() {
		return s
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = m.counters[id].Load()
	}
	if m.latency {
		s.Histograms[MetricProviderLatency] = m.provider.load()
	}
	return s
}
