package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records render outcomes
type Metrics struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	drawOperations prometheus.Histogram
}

// NewMetrics registers the render metrics with reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renders_total",
				Help:      "Render requests by mode and outcome",
			},
			[]string{"mode", "status"},
		),
		renderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_seconds",
				Help:      "Wall time of successful renders, encoder included",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"mode"},
		),
		drawOperations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "draw_operations",
				Help:      "drawtext operations per render",
				Buckets:   prometheus.LinearBuckets(1, 4, 8),
			},
		),
	}
	reg.MustRegister(m.rendersTotal, m.renderDuration, m.drawOperations)
	return m
}

func (m *Metrics) RecordRender(mode, status string, ops int, took time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.rendersTotal.WithLabelValues(mode, status).Inc()
	if status == statusOK {
		m.renderDuration.WithLabelValues(mode).Observe(took.Seconds())
		m.drawOperations.Observe(float64(ops))
	}
}
