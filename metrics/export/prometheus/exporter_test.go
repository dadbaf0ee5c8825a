package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MrEthical07/recipeauth"
)

type fakeSource struct {
	snapshot recipeauth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() recipeauth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                        { return f.dropped }

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: recipeauth.MetricsSnapshot{
			Counters:   map[recipeauth.MetricID]uint64{},
			Histograms: map[recipeauth.MetricID][]uint64{},
		},
	})

	if n := testutil.CollectAndCount(exp); n != 0 {
		t.Fatalf("expected no metrics for disabled engine, got %d", n)
	}
}

func TestCollectCountersAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: recipeauth.MetricsSnapshot{
			Counters: map[recipeauth.MetricID]uint64{
				recipeauth.MetricLoginSuccess:  7,
				recipeauth.MetricQuotaExceeded: 2,
			},
			Histograms: map[recipeauth.MetricID][]uint64{
				recipeauth.MetricProviderLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	want := `
# HELP recipeauth_quota_exceeded_total Sensitive changes refused by the change quota.
# TYPE recipeauth_quota_exceeded_total counter
recipeauth_quota_exceeded_total 2
`
	if err := testutil.CollectAndCompare(exp, strings.NewReader(want), "recipeauth_quota_exceeded_total"); err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	if err := exp.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var found bool
	for _, mf := range families {
		if mf.GetName() != "recipeauth_provider_latency_seconds" {
			continue
		}
		found = true
		h := mf.GetMetric()[0].GetHistogram()
		if h.GetSampleCount() != 36 {
			t.Fatalf("sample count = %d, want 36", h.GetSampleCount())
		}
		if got := h.GetBucket()[0].GetCumulativeCount(); got != 1 {
			t.Fatalf("first bucket = %d, want 1", got)
		}
	}
	if !found {
		t.Fatal("expected latency histogram")
	}
}

func TestHandlerServesEngineMetrics(t *testing.T) {
	engine, err := recipeauth.New().WithConfig(testEngineConfig()).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	res := engine.Login(t.Context(), "a@b.com", "secret1")
	if !res.Success {
		t.Fatalf("login failed: %+v", res)
	}

	srv := httptest.NewServer(NewPrometheusExporter(engine).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "recipeauth_login_fallback_total 1") {
		t.Fatalf("expected fallback counter, got:\n%s", body)
	}
	if !strings.Contains(string(body), "recipeauth_audit_dropped_total 0") {
		t.Fatalf("expected audit dropped counter, got:\n%s", body)
	}
}

func testEngineConfig() recipeauth.Config {
	cfg := recipeauth.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}
