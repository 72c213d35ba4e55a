// Package observability exposes Prometheus instruments for the checkout
// engine and the admission coordinator.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	RunningTasks  prometheus.Gauge
	OrdersPlaced  prometheus.Counter
	DoorsOccupied prometheus.Gauge
	QueueDepth    prometheus.Gauge
	TaskEvents    *prometheus.CounterVec
}

// NewMetrics registers the instrument set under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RunningTasks: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "running_tasks",
			Help:      "Number of checkout tasks currently executing.",
		}),
		OrdersPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Successfully placed orders.",
		}),
		DoorsOccupied: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bypass_doors_occupied",
			Help:      "Browser-automation doors currently claimed.",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bypass_queue_depth",
			Help:      "Tasks waiting for challenge cookies or a door.",
		}),
		TaskEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_events_total",
			Help:      "Task registry events by type.",
		}, []string{"event"}),
	}
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
