package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ownerscan_lookups_total", Help: "Owner lookups by outcome"},
		[]string{"outcome"},
	)
	ExcludedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ownerscan_excluded_total", Help: "Successful lookups dropped by the exclusion filter"},
	)
	BatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ownerscan_batches_total", Help: "Batches joined"},
	)
	BatchSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "ownerscan_batch_seconds", Help: "Wall time per batch", Buckets: prometheus.DefBuckets},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

func init() {
	prometheus.MustRegister(LookupsTotal, ExcludedTotal, BatchesTotal, BatchSeconds)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
