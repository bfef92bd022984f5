package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pix_relay"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Inbound requests handled by the relay",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Inbound request latency",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"route", "status"},
	)

	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Operations forwarded to the payment provider, by outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Latency of operations forwarded to the payment provider",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 9),
		},
		[]string{"provider", "operation"},
	)
)

// Outcomes recorded on ProviderCallsTotal.
const (
	OutcomeSuccess           = "success"
	OutcomeMissingCredential = "missing_credential"
	OutcomeUpstreamError     = "upstream_error"
)

func IncRequest(route, method, status string) {
	HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
}

func ObserveRequest(route, status string, seconds float64) {
	HTTPRequestDuration.WithLabelValues(route, status).Observe(seconds)
}

func IncProviderCall(provider, operation, outcome string) {
	ProviderCallsTotal.WithLabelValues(provider, operation, outcome).Inc()
}

func ObserveProviderCall(provider, operation string, seconds float64) {
	ProviderCallDuration.WithLabelValues(provider, operation).Observe(seconds)
}
