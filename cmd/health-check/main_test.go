package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

func healthServer(t *testing.T, connected bool) *httptest.Server {
	hc := healthcheck.New("2.0.0", zap.NewNop())
	hc.Register(healthcheck.StoreCheckName, healthcheck.NewCustomChecker(healthcheck.StoreCheckName,
		func(_ context.Context) (healthcheck.Status, string, interface{}) {
			if connected {
				return healthcheck.StatusHealthy, "", nil
			}
			return healthcheck.StatusDegraded, "Remote store is not reachable", nil
		}))
	srv := httptest.NewServer(hc.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestRemote_Healthy(t *testing.T) {
	srv := healthServer(t, true)
	var out bytes.Buffer

	code := runRemoteHealthCheck(Options{URL: srv.URL, Timeout: time.Second, Verbose: true}, &out)

	assert.Equal(t, exitCodeSuccess, code)
	assert.Contains(t, out.String(), "Status: healthy")
	assert.Contains(t, out.String(), "Remote store connected: true")
	assert.Contains(t, out.String(), "remote_store: healthy")
}

func TestRemote_DegradedHonoursExpectation(t *testing.T) {
	srv := healthServer(t, false)
	var out bytes.Buffer

	assert.Equal(t, exitCodeFailure,
		runRemoteHealthCheck(Options{URL: srv.URL, Timeout: time.Second, ExpectedStatus: "healthy"}, &out))
	assert.Equal(t, exitCodeSuccess,
		runRemoteHealthCheck(Options{URL: srv.URL, Timeout: time.Second, ExpectedStatus: "degraded", OutputFormat: "compact"}, &out))
	assert.Contains(t, out.String(), `"remote_store_connected":false`)
}

func TestRemote_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	var out bytes.Buffer

	code := runRemoteHealthCheck(Options{URL: url, Timeout: 200 * time.Millisecond, RetryCount: 1, RetryDelay: time.Millisecond}, &out)

	assert.Equal(t, exitCodeError, code)
	assert.Contains(t, out.String(), "after 2 attempts")
}

func TestParseFlags_Defaults(t *testing.T) {
	t.Setenv("HEALTH_CHECK_URL", "")

	opts := parseFlags(nil)

	assert.Equal(t, "http://localhost:8000/health", opts.URL)
	assert.Equal(t, "text", opts.OutputFormat)
	assert.False(t, opts.LocalCheck)
}
