// Package metrics exports the simulation state as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/water-system/internal/logic"
)

const namespace = "water_system"

// Metrics holds the collectors for one run. Collectors are registered on a
// private registry so tests and multiple runs do not collide.
type Metrics struct {
	registry *prometheus.Registry

	level       *prometheus.GaugeVec
	waterHeight *prometheus.GaugeVec
	pumpOn      prometheus.Gauge
	pumpFlow    prometheus.Gauge
	drainFlow   prometheus.Gauge
	steps       prometheus.Counter
	stepSeconds prometheus.Histogram
	events      *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		level: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tank_level_ratio",
			Help:      "Tank fill level as a fraction of capacity.",
		}, []string{"tank"}),
		waterHeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tank_water_height_mm",
			Help:      "Height of the water column in the tank.",
		}, []string{"tank"}),
		pumpOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pump_on",
			Help:      "1 if the pump is running.",
		}),
		pumpFlow: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pump_flow_mm3_per_second",
			Help:      "Current pump flow into tank A.",
		}),
		drainFlow: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drain_flow_mm3_per_second",
			Help:      "Current drain flow from tank A to tank B.",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Simulation steps taken.",
		}),
		stepSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_dt_seconds",
			Help:      "Simulated time advanced per step.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Pump transitions and tank boundary events by type.",
		}, []string{"event"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Run loop errors by source.",
		}, []string{"source"}),
	}

	m.registry.MustRegister(
		m.level, m.waterHeight, m.pumpOn, m.pumpFlow, m.drainFlow,
		m.steps, m.stepSeconds, m.events, m.errors,
	)
	return m
}

// Observe records the outcome of one step and the reading taken after it.
func (m *Metrics) Observe(res logic.StepResult, r logic.Reading) {
	m.steps.Inc()
	m.stepSeconds.Observe(res.Elapsed.Seconds())
	for _, e := range res.Events {
		m.events.WithLabelValues(string(e.Type)).Inc()
	}
	m.SetReading(r)
}

// SetReading updates the gauges without counting a step.
func (m *Metrics) SetReading(r logic.Reading) {
	m.level.WithLabelValues("a").Set(float64(r.LevelA))
	m.level.WithLabelValues("b").Set(float64(r.LevelB))
	m.waterHeight.WithLabelValues("a").Set(float64(r.WaterHeightA))
	m.waterHeight.WithLabelValues("b").Set(float64(r.WaterHeightB))
	if r.Pump == logic.StateOn {
		m.pumpOn.Set(1)
	} else {
		m.pumpOn.Set(0)
	}
	m.pumpFlow.Set(float64(r.PumpFlow))
	m.drainFlow.Set(float64(r.DrainFlow))
}

// Error counts a run loop error from source ("step", "publish", "relay").
func (m *Metrics) Error(source string) {
	m.errors.WithLabelValues(source).Inc()
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
