// Package healthcheck provides health and readiness check functionality
// Following the Health Check API pattern for cloud-native applications
package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// StoreCheckName is the registry name whose result drives remote_store_connected
const StoreCheckName = "remote_store"

const (
	defaultCacheTTL     = 5 * time.Second
	defaultCheckTimeout = 10 * time.Second
)

// Check represents a health check
type Check struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration_ms"`
	Metadata    interface{}   `json:"metadata,omitempty"`
}

// Response represents the health check response
type Response struct {
	Status               Status        `json:"status"`
	Version              string        `json:"version"`
	RemoteStoreConnected bool          `json:"remote_store_connected"`
	Timestamp            time.Time     `json:"timestamp"`
	Checks               []Check       `json:"checks"`
	TotalDuration        time.Duration `json:"total_duration_ms"`
}

// Checker defines the interface for health checks
type Checker interface {
	Check(ctx context.Context) Check
}

// HealthCheck manages health checks
type HealthCheck struct {
	version      string
	checkers     map[string]Checker
	logger       *zap.Logger
	mu           sync.RWMutex
	cache        *Response
	cacheTTL     time.Duration
	checkTimeout time.Duration
}

// New creates a new health check instance
func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:      version,
		checkers:     make(map[string]Checker),
		logger:       logger.Named("healthcheck"),
		cacheTTL:     defaultCacheTTL,
		checkTimeout: defaultCheckTimeout,
	}
}

// Register registers a health checker
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
	h.cache = nil
}

// SetCacheTTL sets the cache TTL for health check responses. Zero disables caching.
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
}

// SetCheckTimeout bounds one round of checks
func (h *HealthCheck) SetCheckTimeout(timeout time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if timeout > 0 {
		h.checkTimeout = timeout
	}
}

// Handler serves the aggregated report. Degraded dependencies do not change
// the status code; only unhealthy ones turn it into 503.
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := h.Check(r.Context())

		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		writeJSON(w, statusCode, response)
	}
}

// LivenessHandler returns the HTTP handler for liveness checks
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// if the handler responds, the service is alive
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "alive",
			"timestamp": time.Now().UTC(),
		})
	}
}

// ReadinessHandler returns the HTTP handler for readiness checks
func (h *HealthCheck) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := h.Check(r.Context())

		if response.Status != StatusHealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not_ready",
				"reason": "Health checks failed",
				"checks": response.Checks,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
		})
	}
}

// Check performs all health checks, concurrently, serving a cached
// report while it is younger than the cache TTL
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	if h.cache != nil && time.Since(h.cache.Timestamp) < h.cacheTTL {
		cached := *h.cache
		h.mu.RUnlock()
		return cached
	}
	checkers := make(map[string]Checker, len(h.checkers))
	for name, checker := range h.checkers {
		checkers[name] = checker
	}
	timeout := h.checkTimeout
	h.mu.RUnlock()

	start := time.Now()
	response := Response{
		Version:   h.version,
		Timestamp: start,
		Status:    StatusHealthy,
		Checks:    make([]Check, 0, len(checkers)),
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var wg sync.WaitGroup
	checksChan := make(chan Check, len(checkers))
	for name, checker := range checkers {
		wg.Add(1)
		go func(n string, c Checker) {
			defer wg.Done()
			check := c.Check(checkCtx)
			check.Name = n
			checksChan <- check
		}(name, checker)
	}
	wg.Wait()
	close(checksChan)

	for check := range checksChan {
		response.Checks = append(response.Checks, check)

		if check.Name == StoreCheckName && check.Status == StatusHealthy {
			response.RemoteStoreConnected = true
		}
		if check.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if check.Status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}
	sort.Slice(response.Checks, func(i, j int) bool {
		return response.Checks[i].Name < response.Checks[j].Name
	})
	response.TotalDuration = time.Since(start)

	if response.Status != StatusHealthy {
		h.logger.Warn("Health check not healthy", zap.String("status", string(response.Status)))
	}

	h.mu.Lock()
	h.cache = &response
	h.mu.Unlock()

	return response
}

// Pinger is anything that can report remote connectivity
type Pinger interface {
	TestConnectivity(ctx context.Context) bool
}

// StoreChecker reports the remote record store. An unreachable store leaves
// the service usable for nothing but health, so it is degraded, not unhealthy.
type StoreChecker struct {
	store Pinger
}

// NewStoreChecker creates a new store checker
func NewStoreChecker(store Pinger) *StoreChecker {
	return &StoreChecker{store: store}
}

// Check performs the connectivity probe
func (s *StoreChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{
		Name:        StoreCheckName,
		LastChecked: start,
		Status:      StatusHealthy,
	}

	ok := s.store.TestConnectivity(ctx)
	check.Duration = time.Since(start)
	if !ok {
		check.Status = StatusDegraded
		check.Message = "Remote store is not reachable"
	}
	return check
}

// CustomChecker allows for custom health check logic
type CustomChecker struct {
	name  string
	check func(ctx context.Context) (Status, string, interface{})
}

// NewCustomChecker creates a new custom checker
func NewCustomChecker(name string, check func(ctx context.Context) (Status, string, interface{})) *CustomChecker {
	return &CustomChecker{
		name:  name,
		check: check,
	}
}

// Check performs custom health check
func (c *CustomChecker) Check(ctx context.Context) Check {
	start := time.Now()

	status, message, metadata := c.check(ctx)

	return Check{
		Name:        c.name,
		Status:      status,
		Message:     message,
		Metadata:    metadata,
		LastChecked: start,
		Duration:    time.Since(start),
	}
}

// MarshalJSON customizes JSON marshaling for duration
func (c Check) MarshalJSON() ([]byte, error) {
	type Alias Check
	return json.Marshal(&struct {
		*Alias
		Duration float64 `json:"duration_ms"`
	}{
		Alias:    (*Alias)(&c),
		Duration: float64(c.Duration.Microseconds()) / 1000,
	})
}

// MarshalJSON customizes JSON marshaling for response
func (r Response) MarshalJSON() ([]byte, error) {
	type Alias Response
	return json.Marshal(&struct {
		*Alias
		TotalDuration float64 `json:"total_duration_ms"`
	}{
		Alias:         (*Alias)(&r),
		TotalDuration: float64(r.TotalDuration.Microseconds()) / 1000,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
