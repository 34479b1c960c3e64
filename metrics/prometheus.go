package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	approvalRequestsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_requests_created_total",
			Help: "Total number of approval requests submitted.",
		},
		[]string{"type"},
	)
	approvalDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_decisions_total",
			Help: "Total number of approval decisions.",
		},
		[]string{"type", "status"},
	)
	approvalApplyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_apply_failures_total",
			Help: "Total number of approvals whose change could not be applied.",
		},
		[]string{"type"},
	)
	lookupCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_cache_requests_total",
			Help: "Lookup list reads by cache result.",
		},
		[]string{"dict", "result"},
	)
)

func init() {
	prometheus.MustRegister(approvalRequestsCreated)
	prometheus.MustRegister(approvalDecisions)
	prometheus.MustRegister(approvalApplyFailures)
	prometheus.MustRegister(lookupCacheHits)
}

func RecordApprovalCreated(approvalType string) {
	approvalRequestsCreated.WithLabelValues(approvalType).Inc()
}

func RecordDecision(approvalType, status string) {
	approvalDecisions.WithLabelValues(approvalType, status).Inc()
}

func RecordApplyFailure(approvalType string) {
	approvalApplyFailures.WithLabelValues(approvalType).Inc()
}

func RecordLookupRead(dict string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	lookupCacheHits.WithLabelValues(dict, result).Inc()
}

// MetricsHandler prometheus exposition handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
