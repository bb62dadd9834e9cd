package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RetryAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixedwidth_retry_attempts_total",
			Help: "Failed attempts that were swallowed and retried",
		},
		[]string{"operation"},
	)

	RetryExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixedwidth_retry_exhausted_total",
			Help: "Operations whose final unguarded attempt failed",
		},
		[]string{"operation"},
	)

	UnitsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixedwidth_units_processed_total",
			Help: "Units of work finished by a worker pool",
		},
		[]string{"pool", "result"}, // success, failure
	)

	UnitsInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fixedwidth_units_in_flight",
			Help: "Units of work currently executing",
		},
		[]string{"pool"},
	)

	UnitLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fixedwidth_unit_latency_seconds",
			Help:    "Histogram of per-unit processing time",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pool"},
	)

	ArtifactsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixedwidth_artifacts_written_total",
			Help: "Temporary artifacts persisted",
		},
		[]string{"kind"},
	)

	ArtifactBytesWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixedwidth_artifact_bytes_written_total",
			Help: "Bytes persisted to temporary artifacts",
		},
		[]string{"kind"},
	)

	ArtifactsMerged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fixedwidth_artifacts_merged_total",
		Help: "Temporary artifacts consumed and deleted by the merger",
	})

	BytesMerged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fixedwidth_bytes_merged_total",
		Help: "Bytes copied from artifacts into output files",
	})

	RowsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fixedwidth_rows_generated_total",
		Help: "Fixed-width rows generated",
	})

	RowsParsed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fixedwidth_rows_parsed_total",
		Help: "Fixed-width rows parsed into delimited rows",
	})

	PhaseDuration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fixedwidth_phase_duration_seconds",
			Help: "Wall time of the last run of each pipeline phase",
		},
		[]string{"phase"},
	)
)
