// Package metrics provides Prometheus instrumentation for ivrdesk.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// CALL METRICS
// =============================================================================

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ivrdesk_requests_total",
			Help: "Total IVR webhook requests by resolved action",
		},
		[]string{"action"}, // acknowledge, disconnect, reprompt, greet, prompt, terminate, apology
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ivrdesk_request_duration_seconds",
			Help:    "IVR webhook handling duration in seconds",
			Buckets: []float64{0.005, 0.05, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"action"},
	)

	completedCallsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ivrdesk_completed_calls_total",
			Help: "Calls that reached the closing phrase",
		},
	)

	sweptSessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ivrdesk_swept_sessions_total",
			Help: "Idle sessions removed by the sweeper",
		},
	)
)

// =============================================================================
// GENERATION METRICS
// =============================================================================

var (
	generationCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ivrdesk_generation_calls_total",
			Help: "Total text generation backend calls",
		},
		[]string{"provider", "status"}, // status: success, error
	)

	generationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ivrdesk_generation_duration_seconds",
			Help:    "Text generation call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)
)

// =============================================================================
// NOTIFICATION METRICS
// =============================================================================

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ivrdesk_notifications_total",
		Help: "Notification deliveries per sink",
	},
	[]string{"sink", "status"}, // status: success, error
)

// =============================================================================
// PUBLIC API
// =============================================================================

// RecordRequest records one handled webhook request.
func RecordRequest(action string, d time.Duration) {
	requestsTotal.WithLabelValues(action).Inc()
	requestDurationSeconds.WithLabelValues(action).Observe(d.Seconds())
}

// RecordGeneration records one generation backend call.
func RecordGeneration(provider string, err error, d time.Duration) {
	generationCallsTotal.WithLabelValues(provider, status(err)).Inc()
	generationDurationSeconds.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordNotification records one delivery attempt to a sink.
func RecordNotification(sink string, err error) {
	notificationsTotal.WithLabelValues(sink, status(err)).Inc()
}

// RecordCompletedCall counts a call that reached its closing phrase.
func RecordCompletedCall() {
	completedCallsTotal.Inc()
}

// RecordSwept counts sessions removed for inactivity.
func RecordSwept(n int) {
	sweptSessionsTotal.Add(float64(n))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
