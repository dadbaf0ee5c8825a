// Package otel provides OpenTelemetry metric exporter bindings for recipeauth
// counters and the provider latency histogram.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter. Each
// histogram becomes a "_bucket" gauge with one point per "le" attribute and a
// "_count" counter. A single callback reads
// [recipeauth.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
