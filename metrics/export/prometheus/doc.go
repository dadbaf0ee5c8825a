// Package prometheus provides a Prometheus collector for recipeauth metrics.
//
// [NewPrometheusExporter] accepts a [recipeauth.Engine] and implements
// prometheus.Collector over its snapshots. Counter names are prefixed
// recipeauth_*_total; the single histogram is
// recipeauth_provider_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. Callers mount the
//     Handler or call Register with their own registry.
//   - Mutate engine state.
package prometheus
