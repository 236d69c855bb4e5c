// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FilterRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "polypaper_filter_rejections_total", Help: "Candidates rejected by the market filter"},
		[]string{"reason"},
	)
	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "polypaper_decisions_total", Help: "Risk decisions by outcome"},
		[]string{"decision"},
	)
	LedgerAppends = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "polypaper_ledger_appends_total", Help: "Paper trades appended to the ledger"},
	)
	CandidatesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "polypaper_candidates_skipped_total", Help: "Filtered markets skipped for lack of a usable analysis"},
	)
	PassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "polypaper_pass_duration_seconds", Help: "Wall time of one pipeline pass", Buckets: prometheus.DefBuckets},
	)
)

func init() {
	prometheus.MustRegister(FilterRejections, Decisions, LedgerAppends, CandidatesSkipped, PassDuration)
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
