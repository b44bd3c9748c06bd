package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "constbox_parse_seconds",
		Help:    "Time spent reading and extracting a single source file.",
		Buckets: prometheus.DefBuckets,
	})

	FilesParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "constbox_files_parsed_total",
		Help: "Total number of source files extracted.",
	})

	CorpusDefinitions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "constbox_corpus_definitions",
		Help: "Definitions in the corpus produced by the most recent scan.",
	})

	CorpusReferences = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "constbox_corpus_references",
		Help: "References in the corpus produced by the most recent scan.",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "constbox_scan_seconds",
		Help:    "Time spent on a complete scan-and-enforce pass.",
		Buckets: prometheus.DefBuckets,
	})

	ViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "constbox_violations_total",
		Help: "Box violations discovered, by direction.",
	}, []string{"direction"})
)
