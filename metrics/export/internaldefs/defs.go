package internaldefs

import (
	"strconv"

	"github.com/MrEthical07/recipeauth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   recipeauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   recipeauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter reporting audit events lost to backpressure.
const AuditDroppedName = "recipeauth_audit_dropped_total"

// CounterDefs lists every engine counter in MetricID order.
var CounterDefs = []CounterDef{
	{ID: recipeauth.MetricLoginSuccess, Name: "recipeauth_login_success_total", Help: "Successful sign-ins, remote or local."},
	{ID: recipeauth.MetricLoginFailure, Name: "recipeauth_login_failure_total", Help: "Sign-ins rejected by validation or the identity provider."},
	{ID: recipeauth.MetricLoginFallback, Name: "recipeauth_login_fallback_total", Help: "Sign-ins that fell back to a local session."},
	{ID: recipeauth.MetricRegisterSuccess, Name: "recipeauth_register_success_total", Help: "Successful registrations."},
	{ID: recipeauth.MetricRegisterFailure, Name: "recipeauth_register_failure_total", Help: "Rejected registrations."},
	{ID: recipeauth.MetricRegisterFallback, Name: "recipeauth_register_fallback_total", Help: "Registrations that fell back to a local session."},
	{ID: recipeauth.MetricLogout, Name: "recipeauth_logout_total", Help: "Logout operations."},
	{ID: recipeauth.MetricLogoutRemoteFailure, Name: "recipeauth_logout_remote_failure_total", Help: "Logouts whose remote sign-out failed."},
	{ID: recipeauth.MetricPasswordResetRequest, Name: "recipeauth_password_reset_request_total", Help: "Password reset requests."},
	{ID: recipeauth.MetricPasswordResetUnconfigured, Name: "recipeauth_password_reset_unconfigured_total", Help: "Password reset requests with no reachable provider."},
	{ID: recipeauth.MetricAccountUpdateSuccess, Name: "recipeauth_account_update_success_total", Help: "Accepted account updates."},
	{ID: recipeauth.MetricAccountUpdateRejected, Name: "recipeauth_account_update_rejected_total", Help: "Rejected account updates."},
	{ID: recipeauth.MetricEmailChangeRecorded, Name: "recipeauth_email_change_recorded_total", Help: "Email changes written to the change ledger."},
	{ID: recipeauth.MetricPasswordChangeRecorded, Name: "recipeauth_password_change_recorded_total", Help: "Password changes written to the change ledger."},
	{ID: recipeauth.MetricQuotaExceeded, Name: "recipeauth_quota_exceeded_total", Help: "Sensitive changes refused by the change quota."},
	{ID: recipeauth.MetricSessionResolved, Name: "recipeauth_session_resolved_total", Help: "Reconciliations that produced an authenticated session."},
	{ID: recipeauth.MetricSessionResolveFallback, Name: "recipeauth_session_resolve_fallback_total", Help: "Reconciliations answered from the cache."},
	{ID: recipeauth.MetricCacheCorruptionHealed, Name: "recipeauth_cache_corruption_healed_total", Help: "Corrupt cached session records discarded."},
	{ID: recipeauth.MetricProviderNotification, Name: "recipeauth_provider_notification_total", Help: "Session-change notifications from the identity provider."},
}

// HistogramDefs lists the engine histograms.
var HistogramDefs = []HistogramDef{
	{ID: recipeauth.MetricProviderLatency, Name: "recipeauth_provider_latency_seconds", Help: "Identity provider call latency."},
}

// BucketLabels returns the "le" label of every latency bucket, ending with
// "+Inf".
func BucketLabels() []string {
	bounds := BoundSeconds()
	out := make([]string, 0, len(bounds)+1)
	for _, b := range bounds {
		out = append(out, strconv.FormatFloat(b, 'g', -1, 64))
	}
	return append(out, "+Inf")
}

// BoundSeconds returns the finite bucket upper bounds in seconds.
func BoundSeconds() []float64 {
	bounds := recipeauth.HistogramBounds()
	out := make([]float64, len(bounds))
	for i, d := range bounds {
		out[i] = d.Seconds()
	}
	return out
}

// Cumulative turns per-bucket counts into running totals with one entry per
// bucket label. Missing buckets count as zero and extra ones are ignored, so
// the last element is always the sample count.
func Cumulative(raw []uint64) []uint64 {
	out := make([]uint64, len(recipeauth.HistogramBounds())+1)
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
