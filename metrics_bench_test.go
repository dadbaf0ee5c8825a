package recipeauth

import (
	"testing"
	"time"
)

func BenchmarkMetrics(b *testing.B) {
	enabled := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	disabled := NewMetrics(MetricsConfig{})

	b.Run("inc", func(b *testing.B) {
		b.ReportAllocs()
		for b.Loop() {
			enabled.Inc(MetricEmailChangeRecorded)
		}
	})
	b.Run("inc_disabled", func(b *testing.B) {
		b.ReportAllocs()
		for b.Loop() {
			disabled.Inc(MetricEmailChangeRecorded)
		}
	})
	b.Run("inc_parallel", func(b *testing.B) {
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				enabled.Inc(MetricSessionResolved)
			}
		})
	})
	b.Run("observe", func(b *testing.B) {
		b.ReportAllocs()
		for b.Loop() {
			enabled.Observe(MetricProviderLatency, 40*time.Millisecond)
		}
	})
	b.Run("snapshot", func(b *testing.B) {
		b.ReportAllocs()
		for b.Loop() {
			_ = enabled.Snapshot()
		}
	})
}
