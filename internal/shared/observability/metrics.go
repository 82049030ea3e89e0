package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codeinspector_analysis_seconds",
		Help:    "Time spent running one analysis engine over a source text.",
		Buckets: prometheus.DefBuckets,
	}, []string{"engine"})

	FilesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeinspector_files_analyzed_total",
		Help: "Total number of source files analysed by scans.",
	})

	IssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeinspector_issues_total",
		Help: "Total number of security issues reported, by severity.",
	}, []string{"severity"})

	SourceBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codeinspector_source_bytes",
		Help:    "Size of source texts submitted for analysis.",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	})

	RejectedSourcesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeinspector_rejected_sources_total",
		Help: "Total number of analysis requests rejected before running, by reason.",
	}, []string{"reason"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeinspector_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeinspector_http_requests_total",
		Help: "Total number of API requests, by route pattern and status code.",
	}, []string{"route", "code"})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeinspector_rate_limited_total",
		Help: "Total number of API requests rejected by the rate limiter.",
	})

	HistoryWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeinspector_history_writes_total",
		Help: "Total number of history snapshot writes, by outcome.",
	}, []string{"outcome"})
)
