package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	billsAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bills_analyzed_total",
		Help: "Analyzed bills by resulting type",
	}, []string{"bill_type"})

	analyzeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bill_analyze_duration_seconds",
		Help:    "End-to-end analysis duration including OCR",
		Buckets: prometheus.DefBuckets,
	})

	ocrFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bill_ocr_failures_total",
		Help: "OCR extraction failures",
	})

	lowQualityRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bill_low_quality_rejections_total",
		Help: "Scans rejected for OCR confidence below the analysis floor",
	})

	aiAssistRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bill_ai_assist_runs_total",
		Help: "AI assist passes by outcome",
	}, []string{"outcome"})
)
