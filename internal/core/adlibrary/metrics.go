package adlibrary

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequests counts upstream archive requests by outcome
	// (ok, http_error, transport_error).
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adintel_api_requests_total",
		Help: "Total ad archive API requests by outcome",
	}, []string{"outcome"})

	// APIRequestDuration observes upstream request latency.
	APIRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adintel_api_request_duration_seconds",
		Help:    "Duration of ad archive API requests",
		Buckets: prometheus.DefBuckets,
	})

	// RateLimitWaitSeconds observes sleeps imposed by the hourly window.
	RateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adintel_rate_limit_wait_seconds",
		Help:    "Time spent waiting on the hourly rate limit window",
		Buckets: []float64{0.1, 1, 5, 15, 60, 300, 900, 1800, 3600},
	})

	// FetchRetries counts retried upstream requests.
	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adintel_fetch_retries_total",
		Help: "Total retried ad archive requests",
	})
)
