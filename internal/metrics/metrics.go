package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	ClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexura_claims_total",
			Help: "Reward claims by task kind and outcome",
		},
		[]string{"kind", "result"},
	)
	RelayActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexura_relay_actions_total",
			Help: "On-chain relay actions by action and resulting status",
		},
		[]string{"action", "status"},
	)
)

var once sync.Once

// Init registers the collectors with the default registry. Call this from main.go
func Init() {
	once.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal, HTTPRequestDuration, ClaimsTotal, RelayActionsTotal)
	})
}

// Claim records the outcome of a claim attempt
func Claim(kind, result string) {
	ClaimsTotal.WithLabelValues(kind, result).Inc()
}

// Relay records a relay action reaching status
func Relay(action, status string) {
	RelayActionsTotal.WithLabelValues(action, status).Inc()
}
