// Package metrics exposes prometheus instrumentation for the overlay's
// case-resolution path.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks case-resolution activity.
//
// All metrics use the fuzzyfs_ prefix. They are informational only and
// never affect control flow.
type Metrics struct {
	// Resolutions counts fallback resolutions attempted after an
	// exact-case miss.
	Resolutions prometheus.Counter

	// SegmentCorrections counts path segments whose spelling was
	// corrected against a parent listing.
	SegmentCorrections prometheus.Counter

	// ResolutionMisses counts resolutions that found no
	// case-insensitive match at some level.
	ResolutionMisses prometheus.Counter

	// Inconsistencies counts retries that failed not-found after a
	// successful resolution (the entry vanished in between).
	Inconsistencies prometheus.Counter
}

// New creates the overlay metrics. A nil reg leaves them unregistered,
// which callers use when scraping is disabled; the counters still work.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fuzzyfs_resolutions_total",
			Help: "Fallback case resolutions attempted after an exact-case miss",
		}),
		SegmentCorrections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fuzzyfs_segment_corrections_total",
			Help: "Path segments whose spelling was corrected",
		}),
		ResolutionMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fuzzyfs_resolution_misses_total",
			Help: "Resolutions that found no case-insensitive match",
		}),
		Inconsistencies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fuzzyfs_inconsistencies_total",
			Help: "Retries that failed not-found after a successful resolution",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Resolutions, m.SegmentCorrections, m.ResolutionMisses, m.Inconsistencies)
	}
	return m
}

// Handler returns the scrape handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve blocks serving the scrape endpoint on addr under /metrics.
func Serve(addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	return http.ListenAndServe(addr, mux)
}
