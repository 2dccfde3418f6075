package metrics

import (
	"net/http"
	"time"

	"CoinDash/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes dashboard activity as Prometheus metrics. Each Recorder
// owns its registry so several can coexist in one process.
type Recorder struct {
	registry *prometheus.Registry

	ticks         prometheus.Counter
	samples       *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "coindash_live_ticks_total",
			Help: "Total number of live polling ticks",
		}),
		samples: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coindash_live_samples_total",
				Help: "Total number of live samples appended",
			},
			[]string{"asset"},
		),
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coindash_fetches_total",
				Help: "Total number of data source requests",
			},
			[]string{"operation"},
		),
		fetchFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coindash_fetch_failures_total",
				Help: "Total number of failed data source requests",
			},
			[]string{"operation", "class"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coindash_last_price",
				Help: "Last sampled price for an asset",
			},
			[]string{"asset", "currency"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coindash_fetch_duration_seconds",
				Help:    "Duration of data source requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one data source request and its outcome class.
func (r *Recorder) RecordFetch(op, class string, d time.Duration) {
	r.fetches.WithLabelValues(op).Inc()
	r.latency.WithLabelValues(op).Observe(d.Seconds())
	if class != "ok" {
		r.fetchFailures.WithLabelValues(op, class).Inc()
	}
}

// RecordTick records one live tick and the prices it appended.
func (r *Recorder) RecordTick(currency string, res model.TickResult) {
	r.ticks.Inc()
	for asset, price := range res.Latest {
		r.samples.WithLabelValues(asset).Inc()
		r.lastPrice.WithLabelValues(asset, currency).Set(price)
	}
}

// Registry returns the registry holding this recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
