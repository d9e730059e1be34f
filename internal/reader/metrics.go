package reader

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics reported by readers.
type Metrics struct {
	Lookups  *prometheus.CounterVec
	Keys     *prometheus.CounterVec
	Found    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dictlookup_reader_lookups_total",
		Help: "Total lookup batches by dictionary and outcome",
	}, []string{"dictionary", "status"})

	keys := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dictlookup_reader_keys_total",
		Help: "Total keys submitted for lookup",
	}, []string{"dictionary"})

	found := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dictlookup_reader_keys_found_total",
		Help: "Total keys present in the dictionary",
	}, []string{"dictionary"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dictlookup_reader_lookup_duration_seconds",
		Help:    "Lookup batch latency",
		Buckets: prometheus.ExponentialBuckets(0.00005, 4, 10),
	}, []string{"dictionary"})

	reg.MustRegister(lookups, keys, found, duration)

	return &Metrics{
		Lookups:  lookups,
		Keys:     keys,
		Found:    found,
		Duration: duration,
	}
}

func (m *Metrics) observe(dictionary string, rows int, res Result, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	if err != nil {
		m.Lookups.WithLabelValues(dictionary, "error").Inc()
		return
	}
	m.Lookups.WithLabelValues(dictionary, "ok").Inc()
	m.Keys.WithLabelValues(dictionary).Add(float64(rows))
	m.Found.WithLabelValues(dictionary).Add(float64(res.Rows()))
	m.Duration.WithLabelValues(dictionary).Observe(elapsed.Seconds())
}
