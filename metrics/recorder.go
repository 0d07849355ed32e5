// Package metrics records what an index build did, for scraping through the
// node-exporter textfile collector.
package metrics

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meenmo/spvix/futures"
	"github.com/meenmo/spvix/index"
)

const namespace = "spvix"

// Recorder collects per-run counters. It implements index.Observer.
type Recorder struct {
	registry *prometheus.Registry

	daysComputed   *prometheus.CounterVec
	pricesResolved *prometheus.CounterVec
	rateLookback   prometheus.Histogram
	lastLevel      *prometheus.GaugeVec
	lastDate       *prometheus.GaugeVec
}

// NewRecorder builds a recorder on its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		daysComputed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "days_computed_total",
				Help:      "Index levels computed, by ticker",
			},
			[]string{"ticker"},
		),
		pricesResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prices_resolved_total",
				Help:      "Daily contract reference prices resolved, by strategy",
			},
			[]string{"strategy"},
		),
		rateLookback: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rate_lookback_weeks",
				Help:      "Weeks searched back to find a published t-bill rate",
				Buckets:   []float64{0, 1, 2, 4, 8, 16, 52},
			},
		),
		lastLevel: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_level",
				Help:      "Most recent index level computed",
			},
			[]string{"ticker"},
		),
		lastDate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_date",
				Help:      "Most recent index date computed, as yyyymmdd",
			},
			[]string{"ticker"},
		),
	}
	r.registry.MustRegister(r.daysComputed, r.pricesResolved, r.rateLookback, r.lastLevel, r.lastDate)
	return r
}

// Registry exposes the recorder's registry, e.g. for tests or an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) DayComputed(v index.Variant, p index.Point) {
	ticker := v.Ticker()
	r.daysComputed.WithLabelValues(ticker).Inc()
	r.lastLevel.WithLabelValues(ticker).Set(p.Value)
	r.lastDate.WithLabelValues(ticker).Set(float64(p.Date.Year*10000 + int(p.Date.Month)*100 + p.Date.Day))
}

func (r *Recorder) PriceResolved(_ int, _ civil.Date, s futures.Strategy) {
	r.pricesResolved.WithLabelValues(s.String()).Inc()
}

func (r *Recorder) RateResolved(_ civil.Date, weeksBack int) {
	r.rateLookback.Observe(float64(weeksBack))
}

// WriteTextfile writes the current values in the text exposition format.
// The write goes through a temporary file and a rename.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
