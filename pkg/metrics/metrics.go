// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMCompletionDuration tracks LLM completion duration.
	LLMCompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// PromptTokens tracks the estimated size of assembled prompts.
	PromptTokens = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_prompt_tokens",
			Help:    "Estimated token count of the assembled prompt",
			Buckets: prometheus.ExponentialBuckets(128, 2, 8),
		},
	)

	// RepliesTotal tracks chat replies by kind (text, action, degraded).
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_replies_total",
			Help: "Total chat replies by kind",
		},
		[]string{"kind"},
	)

	// TripsTotal tracks trip materializations by outcome.
	TripsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trips_materialized_total",
			Help: "Trip materializations by outcome",
		},
		[]string{"outcome"},
	)

	// PointsTotal tracks points created for materialized trips.
	PointsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trip_points_created_total",
			Help: "Total trip points created",
		},
	)

	// MessagesTotal tracks total turns logged.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total conversation turns logged",
		},
		[]string{"role", "type"},
	)

	// EventsPublished tracks events sent to NATS.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_events_published_total",
			Help: "Events published to NATS",
		},
		[]string{"kind", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMCompletion records metrics for an LLM completion.
func RecordLLMCompletion(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMCompletionDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordReply records the kind of reply produced for a chat turn.
func RecordReply(kind string) {
	RepliesTotal.WithLabelValues(kind).Inc()
}

// RecordTrip records a trip materialization outcome and its point count.
func RecordTrip(outcome string, points int) {
	TripsTotal.WithLabelValues(outcome).Inc()
	if points > 0 {
		PointsTotal.Add(float64(points))
	}
}
