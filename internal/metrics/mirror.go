package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Mirror exposes collector observations through a prometheus registry so the
// same data is scrapeable at /metrics.
type Mirror struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	timings  *prometheus.HistogramVec
	gauges   *prometheus.GaugeVec
}

func NewMirror() *Mirror {
	m := &Mirror{registry: prometheus.NewRegistry()}
	m.events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hunter_events_total",
		Help: "Count of recorded metric events by name.",
	}, []string{"name"})
	m.timings = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hunter_response_time_ms",
		Help:    "Observed response times in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"name"})
	m.gauges = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hunter_gauge",
		Help: "Last reported gauge value by name.",
	}, []string{"name"})
	m.registry.MustRegister(m.events, m.timings, m.gauges)
	return m
}

func (m *Mirror) Registry() *prometheus.Registry { return m.registry }

func (m *Mirror) Observe(name string, value float64, _ map[string]string) {
	m.events.WithLabelValues(name).Inc()
	if name == "response_time" {
		m.timings.WithLabelValues(name).Observe(value)
	}
}

func (m *Mirror) SetGauge(name string, value float64, _ map[string]string) {
	m.gauges.WithLabelValues(name).Set(value)
}
