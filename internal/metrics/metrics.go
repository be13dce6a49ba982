// Package metrics records service call outcomes in a private Prometheus registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "tutor"

// Collector implements application.OperationRecorder.
type Collector struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	notifications     *prometheus.CounterVec
}

// NewCollector creates a collector whose metric names carry namespace ("tutor" when empty).
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = defaultNamespace
	}

	c := &Collector{registry: prometheus.NewRegistry()}
	c.operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Service operations by outcome",
		},
		[]string{"service", "operation", "outcome"},
	)
	c.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of service operations in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "operation"},
	)
	c.notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	c.registry.MustRegister(c.operations, c.operationDuration, c.notifications)
	return c
}

// ObserveOperation counts one finished service call and records its latency.
func (c *Collector) ObserveOperation(service, operation, outcome string, elapsed time.Duration) {
	c.operations.WithLabelValues(service, operation, outcome).Inc()
	c.operationDuration.WithLabelValues(service, operation).Observe(elapsed.Seconds())
}

// ObserveNotification counts one delivery attempt.
func (c *Collector) ObserveNotification(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	c.notifications.WithLabelValues(kind, result).Inc()
}

// Registry exposes the underlying registry for gathering.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile dumps the current values in text exposition format for the
// node exporter textfile collector. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
