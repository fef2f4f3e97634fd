package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync cursor tracking, one series per network
	MetricLastProcessedBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "indexer_last_processed_block",
		Help: "Last fully committed block for each network",
	}, []string{"network"})
	MetricChainHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "indexer_chain_height",
		Help: "Last observed chain height for each network",
	}, []string{"network"})
	MetricCaughtUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "indexer_caught_up",
		Help: "Whether the network sync has reached the chain tip (1 = caught up, 0 = syncing)",
	}, []string{"network"})

	// Run accounting
	MetricSyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_sync_runs_total",
		Help: "Total number of sync runs per network and result",
	}, []string{"network", "result"})
	MetricSyncRunsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_sync_runs_skipped_total",
		Help: "Sync triggers dropped because a run was already in flight",
	}, []string{"network"})
	MetricBatchesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_batches_processed_total",
		Help: "Total number of block batches committed",
	}, []string{"network"})
	MetricEventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_events_applied_total",
		Help: "Total number of registry events applied",
	}, []string{"network", "event_type"})

	// Agent store
	MetricAgentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_agents_created_total",
		Help: "Total number of agents created from registration events",
	}, []string{"network"})
	MetricDuplicateInserts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_duplicate_inserts_total",
		Help: "Concurrent agent inserts resolved as already-exists",
	}, []string{"network"})

	// Metadata resolution
	MetricMetadataFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_metadata_fetches_total",
		Help: "Metadata resolution attempts by scheme and outcome",
	}, []string{"scheme", "outcome"})

	// Error metrics
	MetricProcessingErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_processing_errors_total",
		Help: "Total number of processing errors",
	}, []string{"component", "error_type"})

	// Performance metrics
	MetricProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indexer_processing_duration_seconds",
			Help:    "Time spent in sync batches and RPC calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"component", "operation"},
	)

	// Actor system metrics
	MetricActorMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_actor_messages_total",
		Help: "Total number of messages processed by actors",
	}, []string{"actor_type", "message_type"})
	MetricActorRestarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_actor_restarts_total",
		Help: "Total number of actor restarts",
	}, []string{"actor_type", "actor_id"})

	// RPC health
	MetricNodeHealthy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "indexer_node_healthy",
		Help: "RPC endpoint health per network (1 = healthy)",
	}, []string{"network"})
	MetricNodeConsecutiveFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "indexer_node_consecutive_failures",
		Help: "Consecutive failed health probes per network",
	}, []string{"network"})
	MetricNodeHeightStagnationSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "indexer_node_height_stagnation_seconds",
		Help: "How long the node height has not advanced",
	}, []string{"network"})
	MetricNodeCriticalFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_node_critical_failures_total",
		Help: "Health probe failures that crossed the alert threshold",
	}, []string{"network"})

	// Kafka publisher
	MetricEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexer_events_published_total",
		Help: "Domain events published to Kafka by type",
	}, []string{"event_type"})
	MetricPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "indexer_publish_failures_total",
		Help: "Failed Kafka publishes (logged and dropped)",
	})
)

// Helper functions for common metric operations

// UpdateCursorMetrics updates the per-network cursor gauges after a batch
// commit.
func UpdateCursorMetrics(network string, lastProcessed, chainHeight uint64) {
	MetricLastProcessedBlock.WithLabelValues(network).Set(float64(lastProcessed))
	MetricChainHeight.WithLabelValues(network).Set(float64(chainHeight))
	if lastProcessed >= chainHeight {
		MetricCaughtUp.WithLabelValues(network).Set(1)
	} else {
		MetricCaughtUp.WithLabelValues(network).Set(0)
	}
}

// RecordSyncRun records a completed sync run with its result label.
func RecordSyncRun(network, result string) {
	MetricSyncRuns.WithLabelValues(network, result).Inc()
}

// RecordEventApplied records one applied registry event.
func RecordEventApplied(network, eventType string) {
	MetricEventsApplied.WithLabelValues(network, eventType).Inc()
}

// RecordAgentCreated records one agent row created from a registration event.
func RecordAgentCreated(network string) {
	MetricAgentsCreated.WithLabelValues(network).Inc()
}

// RecordDuplicateInsert records an insert resolved as already-exists.
func RecordDuplicateInsert(network string) {
	MetricDuplicateInserts.WithLabelValues(network).Inc()
}

// RecordMetadataFetch records a metadata resolution attempt.
func RecordMetadataFetch(scheme, outcome string) {
	MetricMetadataFetches.WithLabelValues(scheme, outcome).Inc()
}

// RecordProcessingError records a processing error
func RecordProcessingError(component, errorType string) {
	MetricProcessingErrors.WithLabelValues(component, errorType).Inc()
}

// RecordProcessingDuration records the duration of a processing operation
func RecordProcessingDuration(component, operation string, duration float64) {
	MetricProcessingDuration.WithLabelValues(component, operation).
		Observe(duration)
}

// RecordActorMessage records a message processed by an actor
func RecordActorMessage(actorType, messageType string) {
	MetricActorMessages.WithLabelValues(actorType, messageType).Inc()
}

// RecordActorRestart records an actor restart
func RecordActorRestart(actorType, actorID string) {
	MetricActorRestarts.WithLabelValues(actorType, actorID).Inc()
}

// UpdateNodeHealth updates the health gauges for a network's RPC endpoint.
func UpdateNodeHealth(network string, healthy bool, consecutiveFailures int) {
	if healthy {
		MetricNodeHealthy.WithLabelValues(network).Set(1)
	} else {
		MetricNodeHealthy.WithLabelValues(network).Set(0)
	}
	MetricNodeConsecutiveFailures.WithLabelValues(network).
		Set(float64(consecutiveFailures))
}

// UpdateHeightStagnation records how long a node height has been flat.
func UpdateHeightStagnation(network string, seconds int64) {
	MetricNodeHeightStagnationSeconds.WithLabelValues(network).
		Set(float64(seconds))
}

// RecordNodeCriticalFailure records a health failure past the alert threshold.
func RecordNodeCriticalFailure(network string) {
	MetricNodeCriticalFailures.WithLabelValues(network).Inc()
}

// RecordEventPublished records a domain event published to Kafka.
func RecordEventPublished(eventType string) {
	MetricEventsPublished.WithLabelValues(eventType).Inc()
}
