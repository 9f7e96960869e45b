package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Thumbnail generation metrics
var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_picker_thumbnail_generations_total",
			Help: "Total number of thumbnail generation attempts",
		},
		[]string{"media", "status"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_picker_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"media", "extractor"},
	)

	ExtractorFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_picker_extractor_fallbacks_total",
			Help: "Times the primary frame extractor failed and the legacy mini-frame path was used",
		},
	)

	InflightDecodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_picker_inflight_decodes",
			Help: "Number of decode tasks currently in flight",
		},
	)
)

// Loader cache metrics
var (
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_picker_cache_hits_total",
			Help: "Thumbnail cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_picker_cache_misses_total",
			Help: "Thumbnail cache misses",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_picker_cache_evictions_total",
			Help: "Thumbnail cache entries dropped by FIFO trim",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_picker_cache_entries",
			Help: "Current number of cached thumbnails",
		},
	)

	StaleCompletions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_picker_stale_completions_total",
			Help: "Decode completions dropped because the display target was rebound",
		},
	)

	QueueRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_picker_queue_rejections_total",
			Help: "Decode tasks rejected because the worker queue was full",
		},
	)
)

// Ledger and sweep metrics
var (
	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_picker_ledger_operations_total",
			Help: "Thumbnail ledger operations",
		},
		[]string{"operation", "status"},
	)

	SweepFilesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_picker_sweep_files_removed_total",
			Help: "Thumbnail files removed by session or orphan sweeps",
		},
	)

	SweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_picker_sweep_errors_total",
			Help: "Errors encountered while sweeping thumbnail files",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_picker_memory_usage_ratio",
			Help: "Heap usage as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_picker_memory_paused",
			Help: "Whether decode work is paused due to memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_picker_memory_gc_pauses_total",
			Help: "Forced garbage collections triggered by memory pressure",
		},
	)
)

// HTTP metrics for the host binary
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_picker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_picker_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_picker_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)
