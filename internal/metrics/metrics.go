package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for analyses_total
const (
	OutcomeOK          = "ok"
	OutcomeParseError  = "parse_error"
	OutcomeConfigError = "config_error"
	OutcomeStorage     = "storage_error"
	OutcomeInternal    = "internal_error"
)

// PipelineMetrics holds the Prometheus collectors for the analysis pipeline
type PipelineMetrics struct {
	analyses      *prometheus.CounterVec   // Analyses by outcome
	stageDuration *prometheus.HistogramVec // Time spent per pipeline stage
	scansParsed   prometheus.Counter       // Scan files successfully parsed
	samplesParsed prometheus.Counter       // Samples across all parsed scans
	combinedSize  prometheus.Histogram     // Distinct frequencies after aggregation
	underFilled   prometheus.Counter       // Selections with fewer frequencies than requested
	selected      prometheus.Histogram     // Frequencies selected per analysis
}

// NewPipelineMetrics creates the pipeline collectors and registers them with reg
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)
	return &PipelineMetrics{
		analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "micfreq_analyses_total",
				Help: "Analyses run, by outcome",
			},
			[]string{"outcome"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "micfreq_stage_duration_seconds",
				Help:    "Time spent in each pipeline stage",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"stage"},
		),
		scansParsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "micfreq_scans_parsed_total",
			Help: "Scan files parsed successfully",
		}),
		samplesParsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "micfreq_samples_parsed_total",
			Help: "Samples read from scan files",
		}),
		combinedSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "micfreq_combined_frequencies",
			Help:    "Distinct frequencies in the combined series",
			Buckets: prometheus.ExponentialBuckets(16, 4, 7),
		}),
		underFilled: factory.NewCounter(prometheus.CounterOpts{
			Name: "micfreq_selection_underfilled_total",
			Help: "Selections that found fewer frequencies than requested",
		}),
		selected: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "micfreq_selected_frequencies",
			Help:    "Frequencies selected per analysis",
			Buckets: prometheus.LinearBuckets(0, 4, 10),
		}),
	}
}

// ObserveStage records how long a pipeline stage took
func (m *PipelineMetrics) ObserveStage(stage string, started time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// RecordScan counts one parsed scan file
func (m *PipelineMetrics) RecordScan(samples int) {
	if m == nil {
		return
	}
	m.scansParsed.Inc()
	m.samplesParsed.Add(float64(samples))
}

// RecordCombined records the size of an aggregated series
func (m *PipelineMetrics) RecordCombined(entries int) {
	if m == nil {
		return
	}
	m.combinedSize.Observe(float64(entries))
}

// RecordSelection records how many frequencies were selected
func (m *PipelineMetrics) RecordSelection(selected int, underFilled bool) {
	if m == nil {
		return
	}
	m.selected.Observe(float64(selected))
	if underFilled {
		m.underFilled.Inc()
	}
}

// RecordOutcome counts one finished analysis
func (m *PipelineMetrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}
