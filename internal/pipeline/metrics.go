package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	viewportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namescan_viewports_total",
			Help: "Viewports processed, by outcome",
		},
		[]string{"outcome"},
	)

	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namescan_viewport_failures_total",
			Help: "Viewports that produced no transcript, by stage",
		},
		[]string{"stage"},
	)

	batchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "namescan_batch_viewports",
			Help:    "Number of viewports per recognition batch",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	preprocessDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "namescan_preprocess_duration_seconds",
			Help:    "Time spent preprocessing one viewport",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	ocrDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "namescan_ocr_duration_seconds",
			Help:    "Time spent in one OCR call, including queueing",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 11),
		},
	)

	resolveDistance = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "namescan_resolve_distance",
			Help:    "Levenshtein distance between transcript and resolved name",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)
)
