package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestServeRegistersMetrics(t *testing.T) {
	srv := Serve(":0")
	defer srv.Close()

	LookupsTotal.WithLabelValues(OutcomeSuccess).Inc()
	BatchesTotal.Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	want := map[string]bool{"ownerscan_lookups_total": false, "ownerscan_batches_total": false}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("%s metric not found", name)
		}
	}
}

func TestLookupsTotalByOutcome(t *testing.T) {
	before := testutil.ToFloat64(LookupsTotal.WithLabelValues(OutcomeFailure))
	LookupsTotal.WithLabelValues(OutcomeFailure).Inc()
	after := testutil.ToFloat64(LookupsTotal.WithLabelValues(OutcomeFailure))
	if after-before != 1 {
		t.Fatalf("expected failure counter to grow by 1, got %v", after-before)
	}
}
