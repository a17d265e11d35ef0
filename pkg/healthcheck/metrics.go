package healthcheck

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthMetrics provides Prometheus metrics for health checks
type HealthMetrics struct {
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	healthStatus  *prometheus.GaugeVec
}

// NewHealthMetrics registers the health check collectors on reg
func NewHealthMetrics(reg prometheus.Registerer, namespace string) *HealthMetrics {
	factory := promauto.With(reg)
	return &HealthMetrics{
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "checks_total",
				Help:      "Total number of health checks performed",
			},
			[]string{"check_name", "status"},
		),
		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "check_duration_seconds",
				Help:      "Duration of health checks in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"check_name"},
		),
		healthStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "status",
				Help:      "Current health status (0=unhealthy, 1=degraded, 2=healthy)",
			},
			[]string{"check_name"},
		),
	}
}

// RecordCheck records one check execution
func (hm *HealthMetrics) RecordCheck(check Check) {
	hm.checksTotal.WithLabelValues(check.Name, string(check.Status)).Inc()
	hm.checkDuration.WithLabelValues(check.Name).Observe(check.Duration.Seconds())
	hm.healthStatus.WithLabelValues(check.Name).Set(statusToFloat(check.Status))
}

func statusToFloat(status Status) float64 {
	switch status {
	case StatusHealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

type instrumentedChecker struct {
	name    string
	metrics *HealthMetrics
	next    Checker
}

// WithMetrics wraps checker so every execution is recorded under name
func WithMetrics(metrics *HealthMetrics, name string, checker Checker) Checker {
	if metrics == nil {
		return checker
	}
	return &instrumentedChecker{name: name, metrics: metrics, next: checker}
}

func (c *instrumentedChecker) Check(ctx context.Context) Check {
	check := c.next.Check(ctx)
	check.Name = c.name
	c.metrics.RecordCheck(check)
	return check
}
