package monitoring

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

const namespace = "nutrition"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Remote store metrics
	remoteCallsTotal   *prometheus.CounterVec
	remoteCallDuration *prometheus.HistogramVec

	// Business metrics
	mealPlansCreatedTotal     prometheus.Counter
	plannedMealsTotal         prometheus.Counter
	shoppingListsGenerated    prometheus.Counter
	shoppingListItemsTotal    prometheus.Counter
	shoppingListsDeletedTotal prometheus.Counter
	shoppingListItemsDeleted  prometheus.Counter
	errorRateTotal            *prometheus.CounterVec
}

var _ outbound.Telemetry = (*MetricsCollector)(nil)

// NewMetricsCollector creates a collector backed by its own registry.
// Go runtime and process collectors are registered alongside.
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status_code"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		remoteCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "airtable_requests_total",
				Help:      "Total number of calls to the remote record store",
			},
			[]string{"operation", "status"},
		),
		remoteCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "airtable_request_duration_seconds",
				Help:      "Remote record store call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"operation"},
		),

		mealPlansCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meal_plans_created_total",
			Help:      "Total number of meal plans created",
		}),
		plannedMealsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "planned_meals_created_total",
			Help:      "Total number of planned meals written",
		}),
		shoppingListsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shopping_lists_generated_total",
			Help:      "Total number of shopping lists generated",
		}),
		shoppingListItemsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shopping_list_items_created_total",
			Help:      "Total number of shopping list items written",
		}),
		shoppingListsDeletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shopping_lists_deleted_total",
			Help:      "Total number of shopping lists deleted",
		}),
		shoppingListItemsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shopping_list_items_deleted_total",
			Help:      "Total number of shopping list items removed by cascade",
		}),
		errorRateTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of failed requests by class",
			},
			[]string{"source", "error_type"},
		),
	}
}

// ObserveHTTP records one served request. route is the matched pattern, not the raw path.
func (m *MetricsCollector) ObserveHTTP(method, route string, status int, size int, duration time.Duration) {
	statusCode := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, route, statusCode).Observe(duration.Seconds())
	m.httpResponseSize.WithLabelValues(method, route).Observe(float64(size))

	if status >= 400 {
		errorType := "client_error"
		if status >= 500 {
			errorType = "server_error"
		}
		m.errorRateTotal.WithLabelValues("http", errorType).Inc()
	}
}

// ObserveRemoteCall records one call to the record store
func (m *MetricsCollector) ObserveRemoteCall(operation, status string, duration time.Duration) {
	m.remoteCallsTotal.WithLabelValues(operation, status).Inc()
	m.remoteCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if status == "error" || strings.HasPrefix(status, "5") {
		m.errorRateTotal.WithLabelValues("airtable", "remote_error").Inc()
	}
}

// Business metric methods

func (m *MetricsCollector) MealPlanCreated(meals int) {
	m.mealPlansCreatedTotal.Inc()
	m.plannedMealsTotal.Add(float64(meals))
}

func (m *MetricsCollector) ShoppingListGenerated(items int) {
	m.shoppingListsGenerated.Inc()
	m.shoppingListItemsTotal.Add(float64(items))
}

func (m *MetricsCollector) ShoppingListDeleted(items int) {
	m.shoppingListsDeletedTotal.Inc()
	m.shoppingListItemsDeleted.Add(float64(items))
}

// Registry exposes the underlying registry, mainly for tests
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(m.logger),
	})
}
