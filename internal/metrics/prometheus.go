/*-------------------------------------------------------------------------
 *
 * prometheus.go
 *    Prometheus metrics for Basecamp
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/metrics/prometheus.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	/* Request metrics */
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basecamp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basecamp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	/* Engine metrics */
	stepExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basecamp_step_executions_total",
			Help: "Total number of step executions",
		},
		[]string{"step_type", "outcome"},
	)

	stepExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basecamp_step_execution_duration_seconds",
			Help:    "Step execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"step_type"},
	)

	instanceTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basecamp_instance_transitions_total",
			Help: "Total number of instance status transitions",
		},
		[]string{"to_status"},
	)

	/* Decision router metrics */
	decisionCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basecamp_decision_calls_total",
			Help: "Total number of decision provider calls",
		},
		[]string{"tier", "status"},
	)

	decisionTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basecamp_decision_tokens_total",
			Help: "Total number of decision tokens",
		},
		[]string{"tier", "direction"},
	)

	decisionEscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basecamp_decision_escalations_total",
			Help: "Total number of tier escalations",
		},
		[]string{"from_tier", "to_tier"},
	)

	/* Job queue metrics */
	jobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basecamp_jobs_processed_total",
			Help: "Total number of jobs processed",
		},
		[]string{"type", "status"},
	)

	/* Scheduler metrics */
	cycleActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basecamp_cycle_actions_total",
			Help: "Total number of agent loop cycle actions",
		},
		[]string{"role", "action"},
	)
)

/* RecordHTTPRequest records an HTTP request */
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

/* RecordStepExecution records a step execution outcome */
func RecordStepExecution(stepType, outcome string, duration time.Duration) {
	stepExecutionsTotal.WithLabelValues(stepType, outcome).Inc()
	stepExecutionDuration.WithLabelValues(stepType).Observe(duration.Seconds())
}

/* RecordInstanceTransition records an instance status transition */
func RecordInstanceTransition(toStatus string) {
	instanceTransitionsTotal.WithLabelValues(toStatus).Inc()
}

/* RecordDecisionCall records one decision provider call */
func RecordDecisionCall(tier int, status string, tokensIn, tokensOut int) {
	t := strconv.Itoa(tier)
	decisionCallsTotal.WithLabelValues(t, status).Inc()
	decisionTokensTotal.WithLabelValues(t, "in").Add(float64(tokensIn))
	decisionTokensTotal.WithLabelValues(t, "out").Add(float64(tokensOut))
}

/* RecordDecisionEscalation records one tier escalation */
func RecordDecisionEscalation(fromTier, toTier int) {
	decisionEscalationsTotal.WithLabelValues(strconv.Itoa(fromTier), strconv.Itoa(toTier)).Inc()
}

/* RecordJobProcessed records a processed job */
func RecordJobProcessed(jobType, status string) {
	jobsProcessedTotal.WithLabelValues(jobType, status).Inc()
}

/* RecordCycleAction records the action chosen by one scheduler cycle */
func RecordCycleAction(role, action string) {
	cycleActionsTotal.WithLabelValues(role, action).Inc()
}

/* Handler returns the Prometheus metrics HTTP handler */
func Handler() http.Handler {
	return promhttp.Handler()
}
