package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchTotal      *prometheus.CounterVec
	fetchLatency    *prometheus.HistogramVec
	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	lastPrice       *prometheus.GaugeVec
	errorsTotal     *prometheus.CounterVec
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adrfeed_fetch_total",
				Help: "Upstream quote fetches by mode and result",
			},
			[]string{"mode", "result"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adrfeed_fetch_duration_seconds",
				Help:    "Duration of a single upstream quote fetch",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"mode"},
		),
		refreshTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adrfeed_refresh_total",
				Help: "Refresh cycles by resulting data status",
			},
			[]string{"status"},
		),
		refreshDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "adrfeed_refresh_duration_seconds",
				Help:    "Duration of a full sequential refresh cycle",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 150},
			},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "adrfeed_last_price",
				Help: "Last fetched price for a ticker",
			},
			[]string{"ticker"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adrfeed_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordFetch records one upstream call.
func (r *Recorder) RecordFetch(mode, result string, seconds float64) {
	r.fetchTotal.WithLabelValues(mode, result).Inc()
	r.fetchLatency.WithLabelValues(mode).Observe(seconds)
}

// RecordRefresh records one refresh cycle.
func (r *Recorder) RecordRefresh(status string, seconds float64) {
	r.refreshTotal.WithLabelValues(status).Inc()
	r.refreshDuration.Observe(seconds)
}

// RecordLastPrice sets the last price gauge for a ticker.
func (r *Recorder) RecordLastPrice(ticker string, price float64) {
	r.lastPrice.WithLabelValues(ticker).Set(price)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
