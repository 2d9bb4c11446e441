package metrics

import (
	"time"

	"sma-crossover/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sma_crossover"

// Recorder collects per-run pipeline metrics on a private registry.
// A nil Recorder discards everything.
type Recorder struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	failures      *prometheus.CounterVec
	samples       *prometheus.GaugeVec
	markers       *prometheus.GaugeVec
	position      *prometheus.GaugeVec
	lastSuccess   *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "stage_failures_total", Help: "Pipeline stage failures"},
			[]string{"stage"},
		),
		samples: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "price_samples", Help: "Price samples in the last analysed series"},
			[]string{"symbol"},
		),
		markers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "crossover_markers", Help: "Crossover markers in the last run"},
			[]string{"symbol", "side"},
		),
		position: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "latest_position", Help: "Position at the newest sample (-1 short, 0 neutral, 1 long)"},
			[]string{"symbol"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "last_success_timestamp_seconds", Help: "Unix time of the last successful run"},
			[]string{"symbol"},
		),
	}
	r.registry.MustRegister(r.stageDuration, r.failures, r.samples, r.markers, r.position, r.lastSuccess)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *Recorder) RecordFailure(stage string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(stage).Inc()
}

// RecordResult stores the outcome of a completed analysis.
func (r *Recorder) RecordResult(res *domain.AnalysisResult, at time.Time) {
	if r == nil || res == nil {
		return
	}
	symbol := res.Params.Symbol
	r.samples.WithLabelValues(symbol).Set(float64(res.Series.Len()))
	r.markers.WithLabelValues(symbol, "buy").Set(float64(res.Summary.Buys))
	r.markers.WithLabelValues(symbol, "sell").Set(float64(res.Summary.Sells))
	r.position.WithLabelValues(symbol).Set(float64(res.Summary.Latest))
	r.lastSuccess.WithLabelValues(symbol).Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
