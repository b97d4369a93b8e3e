package pocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pocketRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pocketbot_pocket_requests_total",
	Help: "Pocket API requests by operation and result",
}, []string{"operation", "status"})

var pocketRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pocketbot_pocket_request_duration_seconds",
	Help:    "Time to complete a Pocket API request",
	Buckets: prometheus.ExponentialBucketsRange(0.01, 30, 15),
}, []string{"operation"})
