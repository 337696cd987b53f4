package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	submissionsTotal       *prometheus.CounterVec
	featureDecisionsTotal  *prometheus.CounterVec
	linkRedemptionsTotal   *prometheus.CounterVec
	registryMutationsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probing_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "probing_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probing_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probing_submissions_total",
			Help: "Submission attempts by workflow, slot and outcome.",
		}, []string{"category", "slot", "outcome"})

		featureDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probing_feature_gate_decisions_total",
			Help: "Feature gate decisions by flag and result.",
		}, []string{"feature", "decision"})

		linkRedemptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probing_link_code_redemptions_total",
			Help: "Linking code redemptions by outcome.",
		}, []string{"outcome"})

		registryMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "probing_registry_mutations_total",
			Help: "Registry users created and deleted by administrators.",
		}, []string{"action"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsTotal,
			featureDecisionsTotal,
			linkRedemptionsTotal,
			registryMutationsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Submissions exposes the submission outcome counter.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// FeatureDecisions exposes the feature gate decision counter.
func FeatureDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return featureDecisionsTotal
}

// LinkRedemptions exposes the linking code redemption counter.
func LinkRedemptions() *prometheus.CounterVec {
	RegisterMetrics()
	return linkRedemptionsTotal
}

// RegistryMutations exposes the registry create/delete counter.
func RegistryMutations() *prometheus.CounterVec {
	RegisterMetrics()
	return registryMutationsTotal
}
