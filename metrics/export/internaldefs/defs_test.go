package internaldefs

import (
	"testing"

	"github.com/MrEthical07/recipeauth"
)

func TestEveryCounterHasADefinition(t *testing.T) {
	defined := make(map[recipeauth.MetricID]bool, len(CounterDefs))
	names := make(map[string]bool, len(CounterDefs))
	for _, def := range CounterDefs {
		if names[def.Name] {
			t.Fatalf("duplicate metric name %q", def.Name)
		}
		names[def.Name] = true
		defined[def.ID] = true
	}
	for _, def := range HistogramDefs {
		defined[def.ID] = true
	}

	for id := recipeauth.MetricID(0); id.String() != "unknown"; id++ {
		if !defined[id] {
			t.Fatalf("metric %s has no exporter definition", id)
		}
	}
}

func TestBucketLabels(t *testing.T) {
	got := BucketLabels()
	want := []string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}
	if len(got) != len(want) {
		t.Fatalf("labels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("label %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCumulative(t *testing.T) {
	tests := []struct {
		name string
		raw  []uint64
		want []uint64
	}{
		{name: "empty", raw: nil, want: []uint64{0, 0, 0, 0, 0, 0, 0, 0}},
		{name: "short", raw: []uint64{1, 2, 3}, want: []uint64{1, 3, 6, 6, 6, 6, 6, 6}},
		{name: "overlong", raw: []uint64{1, 1, 1, 1, 1, 1, 1, 1, 9}, want: []uint64{1, 2, 3, 4, 5, 6, 7, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cumulative(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("cumulative = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
