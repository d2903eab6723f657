// Package metrics declares the three Prometheus series exported at the
// scrape endpoint (§4.7, §6), registered once via promauto the way the
// teacher's internal/middleware/middleware.go registers its gateway
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal is load_balancer_requests_total (no labels).
	RequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "load_balancer_requests_total",
		Help: "Total number of requests handled by the load balancer.",
	})

	// AlgoRequestsTotal is load_balancer_algo_requests_total{algo}.
	AlgoRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "load_balancer_algo_requests_total",
		Help: "Total number of requests per selection algorithm.",
	}, []string{"algo"})

	// ResponseDuration is load_balancer_response_duration_seconds{algo}.
	ResponseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "load_balancer_response_duration_seconds",
		Help:    "Histogram of response durations by algorithm.",
		Buckets: prometheus.DefBuckets,
	}, []string{"algo"})
)
