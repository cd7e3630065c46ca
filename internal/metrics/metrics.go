// Package metrics exposes device activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "airmon_"

	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the collectors for one device. Each instance owns its own
// registry so tests do not share state.
type Metrics struct {
	reg *prometheus.Registry

	sensorReads   *prometheus.CounterVec
	logAppends    *prometheus.CounterVec
	requests      *prometheus.CounterVec
	page          prometheus.Gauge
	passDuration  prometheus.Histogram
	mqttPublishes *prometheus.CounterVec
	readings      *prometheus.GaugeVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		sensorReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sensor_reads_total",
				Help: "Total sensor read attempts by sensor and result",
			},
			[]string{"sensor", "result"},
		),
		logAppends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "log_appends_total",
				Help: "Total data log appends by result",
			},
			[]string{"result"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests served by route",
			},
			[]string{"route"},
		),
		page: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "display_page",
				Help: "Index of the page currently on the display",
			},
		),
		passDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "pass_duration_seconds",
				Help:    "Duration of one scheduler pass in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
			},
		),
		mqttPublishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mqtt_publishes_total",
				Help: "Total MQTT publishes by topic kind and result",
			},
			[]string{"kind", "result"},
		),
		readings: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "reading",
				Help: "Latest sensor reading by quantity",
			},
			[]string{"quantity"},
		),
	}
	m.reg.MustRegister(
		m.sensorReads,
		m.logAppends,
		m.requests,
		m.page,
		m.passDuration,
		m.mqttPublishes,
		m.readings,
		collectors.NewGoCollector(),
	)
	return m
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// SensorRead records one read attempt.
func (m *Metrics) SensorRead(sensor string, err error) {
	if m == nil {
		return
	}
	m.sensorReads.WithLabelValues(sensor, result(err)).Inc()
}

// LogAppend records one data log append.
func (m *Metrics) LogAppend(err error) {
	if m == nil {
		return
	}
	m.logAppends.WithLabelValues(result(err)).Inc()
}

// Request records one served HTTP request.
func (m *Metrics) Request(route string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route).Inc()
}

// Page records the page on the display.
func (m *Metrics) Page(index int) {
	if m == nil {
		return
	}
	m.page.Set(float64(index))
}

// Pass records the duration of one scheduler pass.
func (m *Metrics) Pass(d time.Duration) {
	if m == nil {
		return
	}
	m.passDuration.Observe(d.Seconds())
}

// Publish records one MQTT publish.
func (m *Metrics) Publish(kind string, err error) {
	if m == nil {
		return
	}
	m.mqttPublishes.WithLabelValues(kind, result(err)).Inc()
}

// Reading records the latest value of a measured quantity.
func (m *Metrics) Reading(quantity string, v float64) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(quantity).Set(v)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
