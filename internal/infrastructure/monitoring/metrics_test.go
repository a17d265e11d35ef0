package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetricsCollector_BusinessEvents(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())

	m.MealPlanCreated(21)
	m.MealPlanCreated(14)
	m.ShoppingListGenerated(8)
	m.ShoppingListDeleted(8)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mealPlansCreatedTotal))
	assert.Equal(t, 35.0, testutil.ToFloat64(m.plannedMealsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shoppingListsGenerated))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.shoppingListItemsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shoppingListsDeletedTotal))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.shoppingListItemsDeleted))
}

func TestMetricsCollector_ObserveHTTP(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())

	m.ObserveHTTP(http.MethodGet, "/meal-plans/{id}", 200, 512, 20*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "/meal-plans/{id}", 404, 64, time.Millisecond)
	m.ObserveHTTP(http.MethodPost, "/meal-plans", 500, 64, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/meal-plans/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorRateTotal.WithLabelValues("http", "client_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorRateTotal.WithLabelValues("http", "server_error")))
}

func TestMetricsCollector_ObserveRemoteCall(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())

	m.ObserveRemoteCall("list", "200", 50*time.Millisecond)
	m.ObserveRemoteCall("list", "200", 70*time.Millisecond)
	m.ObserveRemoteCall("create_batch", "503", time.Second)
	m.ObserveRemoteCall("get", "error", time.Second)
	m.ObserveRemoteCall("get", "404", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.remoteCallsTotal.WithLabelValues("list", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.errorRateTotal.WithLabelValues("airtable", "remote_error")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.remoteCallDuration))
}

func TestMetricsCollector_Handler(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())
	m.MealPlanCreated(21)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "nutrition_meal_plans_created_total 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsCollector_IsolatedRegistries(t *testing.T) {
	a := NewMetricsCollector(zap.NewNop())
	b := NewMetricsCollector(zap.NewNop())
	a.ShoppingListGenerated(3)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.shoppingListsGenerated))
	count, err := testutil.GatherAndCount(a.Registry(), "nutrition_shopping_lists_generated_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(TracingConfig{Enabled: false}, zap.NewNop())

	require.NoError(t, err)
	assert.False(t, tp.Enabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.Empty(t, TraceIDFromContext(context.Background()))
	assert.Empty(t, SpanIDFromContext(context.Background()))
}

func TestHTTPRequestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")

	HTTPRequestLogger(ctx, logger, "GET", "/health", "10.0.0.1", 200, 10, time.Millisecond)
	HTTPRequestLogger(ctx, logger, "GET", "/meal-plans/x", "10.0.0.1", 404, 10, time.Millisecond)
	HTTPRequestLogger(ctx, logger, "POST", "/meal-plans", "10.0.0.1", 502, 10, time.Millisecond)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
}

func TestWithContext_NoFields(t *testing.T) {
	logger := zap.NewNop()
	assert.Same(t, logger, WithContext(context.Background(), logger))
}
