package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreLatency is the duration of store queries.
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dataaccess_store_latency",
			Help: "Duration of store queries",
		},
		[]string{"backend", "query"},
	)

	// StoreTotalRequests is the total number of store requests.
	StoreTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_total_requests",
			Help: "Total number of store requests",
		},
		[]string{"backend", "query"},
	)

	// StoreTotalErrors is the total number of store requests that failed.
	StoreTotalErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_total_errors",
			Help: "Total number of failed store requests",
		},
		[]string{"backend", "query"},
	)
)

// Observe counts a request and starts its latency timer. Call the returned function when the request is done.
func Observe(backend, query string) func() {
	StoreTotalRequests.WithLabelValues(backend, query).Inc()
	t := prometheus.NewTimer(StoreLatency.WithLabelValues(backend, query))
	return func() {
		t.ObserveDuration()
	}
}

// Failed counts a failed request.
func Failed(backend, query string) {
	StoreTotalErrors.WithLabelValues(backend, query).Inc()
}
