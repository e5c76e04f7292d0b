// Package metrics holds the Prometheus collectors for the scheduler and
// delivery pipeline on a private registry.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Fired      prometheus.Counter
	Spawned    prometheus.Counter
	Deliveries *prometheus.CounterVec
	TickSecs   prometheus.Histogram
	Due        prometheus.Gauge
	Cleaned    prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		Fired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_fired_total",
			Help: "Reminders processed by the scheduler",
		}),
		Spawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_spawned_total",
			Help: "Successor reminders created for repeating reminders",
		}),
		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminder_deliveries_total",
				Help: "Delivery attempts by destination and result",
			},
			[]string{"destination", "result"},
		),
		TickSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_tick_seconds",
			Help:    "Duration of one scheduler tick",
			Buckets: prometheus.DefBuckets,
		}),
		Due: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_due_reminders",
			Help: "Size of the due set at the last tick",
		}),
		Cleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_cleaned_total",
			Help: "Inactive reminders removed by retention cleanup",
		}),
	}

	registry.MustRegister(
		m.Fired,
		m.Spawned,
		m.Deliveries,
		m.TickSecs,
		m.Due,
		m.Cleaned,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Snapshot sums every counter and gauge by family name. Histograms are
// reported as their sample count.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	values := make(map[string]float64, len(families))
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] += metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				values[f.GetName()] += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return values, nil
}
