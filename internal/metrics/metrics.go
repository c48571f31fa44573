package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationAttempts tracks generation calls by result (success, retryable, fatal)
	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genpost_generation_attempts_total",
			Help: "Total number of generation attempts",
		},
		[]string{"result"},
	)

	// BackoffWaits tracks backoff waits between generation attempts
	BackoffWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "genpost_backoff_waits_total",
			Help: "Total number of backoff waits before a retry",
		},
	)

	// BackoffDelay tracks the chosen backoff delays
	BackoffDelay = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "genpost_backoff_delay_seconds",
			Help:    "Backoff delay before a retry in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80, 160},
		},
	)

	// PipelineOutcomes tracks finished runs by result and failure kind
	PipelineOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genpost_pipeline_outcomes_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"result", "kind"},
	)

	// StageLatency tracks how long each pipeline stage takes
	StageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genpost_stage_latency_seconds",
			Help:    "Pipeline stage latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// StagedArtifacts tracks artifacts currently held in the staging dir
	StagedArtifacts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "genpost_staged_artifacts",
			Help: "Number of staged artifacts not yet released",
		},
	)

	// StagingFilesSwept tracks stale staging files removed by the sweeper
	StagingFilesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "genpost_staging_files_swept_total",
			Help: "Total number of stale staging files removed",
		},
	)

	// BatchWorkers tracks busy batch workers
	BatchWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "genpost_batch_workers_active",
			Help: "Number of batch workers currently running an item",
		},
	)

	// FailedItemsPending tracks the dead-letter queue depth
	FailedItemsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "genpost_failed_items_pending",
			Help: "Number of failed items waiting for replay",
		},
	)

	// ReplayResults tracks replay attempts by result (resolved, failed, ignored)
	ReplayResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genpost_replay_results_total",
			Help: "Total number of failed item replays by result",
		},
		[]string{"result"},
	)

	// DBConnectionPoolUsage tracks the percentage of database connections in use
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "genpost_db_connection_pool_usage",
			Help: "Percentage of database connections in use",
		},
	)
)
