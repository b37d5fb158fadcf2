// Package metrics exposes the process-wide prometheus collectors for the
// extraction pipeline, registered the way the teacher's gateway monitoring
// middleware builds its CounterVec/HistogramVec set via promauto.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AgentInvocations counts domain-extractor agent calls, labelled by
	// domain and outcome (success or error).
	AgentInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "takeoff",
		Subsystem: "agent",
		Name:      "invocations_total",
		Help:      "External agent invocations by agent name and outcome.",
	}, []string{"agent", "outcome"})

	// AgentLatency observes wall-clock time spent inside one domain-extractor
	// agent call, measured after the concurrency semaphore is acquired.
	AgentLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "takeoff",
		Subsystem: "agent",
		Name:      "latency_seconds",
		Help:      "Agent invocation latency in seconds.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"agent"})

	// SemaphoreWait observes time spent waiting to acquire the counting
	// semaphore that bounds the domain fan-out's agent calls.
	SemaphoreWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "takeoff",
		Subsystem: "agent",
		Name:      "semaphore_wait_seconds",
		Help:      "Time spent waiting to acquire the agent concurrency semaphore.",
		Buckets:   prometheus.DefBuckets,
	})

	// DomainRetries counts retry attempts per domain extractor.
	DomainRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "takeoff",
		Subsystem: "extract",
		Name:      "domain_retries_total",
		Help:      "Domain extractor retry attempts by domain.",
	}, []string{"domain"})

	// StageDuration observes wall-clock duration of each orchestrator
	// stage (discovery, orientation_project, domain_fanout, merge).
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "takeoff",
		Subsystem: "orchestrator",
		Name:      "stage_seconds",
		Help:      "Orchestrator stage wall-clock duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
	}, []string{"stage"})

	// EvaluationF1 is a per-evaluation F1 gauge on the default registry.
	// No code in this module sets it, and the status server's /metrics
	// serves its own registry rather than this one.
	EvaluationF1 = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "takeoff",
		Subsystem: "verify",
		Name:      "f1_score",
		Help:      "Most recent macro F1 score for an evaluation.",
	}, []string{"eval_id"})
)

// ObserveStage records stage duration from a start time. Callers defer it:
//
//	defer metrics.ObserveStage("discovery", time.Now())
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
