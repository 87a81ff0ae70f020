// Package metrics holds the Prometheus collectors for the marketplace core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rentwise"

// Visit transition results.
const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
	ResultConflict = "conflict"
)

var (
	// ConversationsCreated counts conversations opened by a first message.
	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_created_total",
			Help:      "Total conversations created",
		},
	)

	// MessagesSent counts appended messages by sender role.
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total messages sent",
		},
		[]string{"role"},
	)

	// VisitRequestsCreated counts visit requests entering the pending state.
	VisitRequestsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visit_requests_created_total",
			Help:      "Total visit requests created",
		},
	)

	// VisitTransitions counts visit actions by outcome.
	VisitTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visit_transitions_total",
			Help:      "Total visit request actions by result",
		},
		[]string{"action", "result"},
	)

	// RequestDuration tracks API latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "status"},
	)
)

// RecordTransition counts one visit action outcome.
func RecordTransition(action, result string) {
	VisitTransitions.WithLabelValues(action, result).Inc()
}
