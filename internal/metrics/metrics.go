package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunityCount tracks the number of opportunities in the latest snapshot
	OpportunityCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lpscout_opportunity_count",
		Help: "The number of opportunities in the latest snapshot",
	})

	// SnapshotAge tracks the age of the latest snapshot in seconds
	SnapshotAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lpscout_snapshot_age_seconds",
		Help: "Seconds since the opportunity snapshot was last refreshed",
	})

	// RefreshSeconds tracks time taken to refresh the opportunity snapshot
	RefreshSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lpscout_refresh_seconds",
		Help:    "Time taken to refresh the opportunity snapshot in seconds",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	// APIRequestsTotal tracks upstream API requests by source and status
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpscout_api_requests_total",
			Help: "The total number of upstream API requests",
		},
		[]string{"source", "status"},
	)

	// RPCRequestsTotal tracks RPC requests by status
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpscout_rpc_requests_total",
			Help: "The total number of RPC requests",
		},
		[]string{"status"},
	)

	// PositionsProcessed tracks the number of positions processed
	PositionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpscout_positions_processed_total",
			Help: "The total number of position profit computations",
		},
		[]string{"status"}, // success, failed, not_found
	)

	// PositionQueueLength tracks the number of positions in the backfill queue
	PositionQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lpscout_position_queue_length",
		Help: "The number of positions currently in the backfill queue",
	})

	// WorkersActive tracks the number of active workers
	WorkersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lpscout_workers_active",
		Help: "The number of workers currently active",
	})

	// DatabaseOperations tracks database operations
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpscout_database_operations_total",
			Help: "The total number of database operations",
		},
		[]string{"operation", "status"}, // upsert/query, success/failed
	)

	// WorkerTaskDuration tracks how long workers spend on tasks
	WorkerTaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lpscout_worker_task_duration_seconds",
			Help:    "Time taken by workers to complete tasks",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task_type", "worker_id"},
	)
)

// RecordAPIRequest records an upstream API request with the given source and status
func RecordAPIRequest(source, status string) {
	APIRequestsTotal.WithLabelValues(source, status).Inc()
}

// RecordRPCRequest records an RPC request with the given status
func RecordRPCRequest(status string) {
	RPCRequestsTotal.WithLabelValues(status).Inc()
}

// RecordRefresh records the time taken to refresh the snapshot
func RecordRefresh(duration float64) {
	RefreshSeconds.Observe(duration)
}

// RecordPositionProcessed records a processed position
func RecordPositionProcessed(status string) {
	PositionsProcessed.WithLabelValues(status).Inc()
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string) {
	DatabaseOperations.WithLabelValues(operation, status).Inc()
}

// RecordWorkerTaskDuration records the time taken by a worker to complete a task
func RecordWorkerTaskDuration(taskType, workerID string, duration float64) {
	WorkerTaskDuration.WithLabelValues(taskType, workerID).Observe(duration)
}
