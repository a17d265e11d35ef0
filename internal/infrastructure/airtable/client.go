// Package airtable provides the Airtable REST integration behind the record store port
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alchemorsel/nutrition/pkg/errors"
)

const (
	// DefaultBaseURL is the public Airtable REST endpoint
	DefaultBaseURL = "https://api.airtable.com/v0"

	// DefaultRequestsPerSecond is Airtable's documented per-base limit
	DefaultRequestsPerSecond = 5.0

	// DefaultPageSize is the largest page Airtable serves
	DefaultPageSize = 100

	serviceName = "airtable"
)

// Config holds Airtable connection settings
type Config struct {
	APIKey            string
	BaseID            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	PageSize          int
}

// CallObserver receives the outcome of every remote call
type CallObserver interface {
	ObserveRemoteCall(operation, status string, duration time.Duration)
}

// Client performs authenticated, throttled calls against one Airtable base
type Client struct {
	config   Config
	http     *http.Client
	limiter  *rate.Limiter
	observer CallObserver
	logger   *zap.Logger
}

// NewClient creates a new Airtable client. observer may be nil.
func NewClient(config Config, observer CallObserver, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if config.PageSize <= 0 || config.PageSize > DefaultPageSize {
		config.PageSize = DefaultPageSize
	}

	logger = logger.Named("airtable-client")
	logger.Info("Airtable client initialized",
		zap.String("base_url", config.BaseURL),
		zap.String("base_id", config.BaseID),
		zap.Duration("timeout", config.Timeout),
		zap.Float64("requests_per_second", config.RequestsPerSecond),
	)

	return &Client{
		config: config,
		http: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter:  rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		observer: observer,
		logger:   logger,
	}
}

// APIError is the error payload returned by Airtable. It arrives either as
// {"error": "NOT_FOUND"} or {"error": {"type": "...", "message": "..."}}.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("airtable: %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("airtable: %d %s", e.StatusCode, e.Type)
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Type: http.StatusText(status)}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return apiErr
	}

	var code string
	if err := json.Unmarshal(envelope.Error, &code); err == nil {
		apiErr.Type = code
		return apiErr
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		if detail.Type != "" {
			apiErr.Type = detail.Type
		}
		apiErr.Message = detail.Message
	}
	return apiErr
}

// request describes one call relative to the base
type request struct {
	operation string
	method    string
	table     string
	recordID  string
	query     url.Values
	body      interface{}
}

func (c *Client) endpoint(table, recordID string) string {
	u := c.config.BaseURL + "/" + url.PathEscape(c.config.BaseID) + "/" + url.PathEscape(table)
	if recordID != "" {
		u += "/" + url.PathEscape(recordID)
	}
	return u
}

// do sends the request and decodes a 2xx JSON response into out
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.NewExternalServiceError(serviceName, err)
	}

	target := c.endpoint(r.table, r.recordID)
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return errors.NewInternalError("failed to encode airtable request").WithCause(err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return errors.NewInternalError("failed to create airtable request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(r.operation, "error", start)
		c.logger.Warn("Airtable request failed",
			zap.String("operation", r.operation),
			zap.String("table", r.table),
			zap.Error(err),
		)
		return errors.NewExternalServiceError(serviceName, err).
			WithMetadata("operation", r.operation).
			WithMetadata("table", r.table)
	}
	defer resp.Body.Close()

	c.observe(r.operation, strconv.Itoa(resp.StatusCode), start)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewExternalServiceError(serviceName, err)
	}

	c.logger.Debug("Airtable request completed",
		zap.String("operation", r.operation),
		zap.String("method", r.method),
		zap.String("table", r.table),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	// Only a single-record path can name a missing record; a 404 on a table
	// path (TABLE_NOT_FOUND, bad base) is a remote failure.
	if resp.StatusCode == http.StatusNotFound && r.recordID != "" {
		return errors.NewNotFoundError("record").
			WithMetadata("table", r.table).
			WithMetadata("record_id", r.recordID).
			WithCause(parseAPIError(resp.StatusCode, payload))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, payload)
		c.logger.Warn("Airtable returned an error",
			zap.String("operation", r.operation),
			zap.String("table", r.table),
			zap.Int("status", resp.StatusCode),
			zap.String("type", apiErr.Type),
		)
		return errors.NewExternalServiceError(serviceName, apiErr).
			WithMetadata("operation", r.operation).
			WithMetadata("status", resp.StatusCode)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.NewExternalServiceError(serviceName, fmt.Errorf("decode %s response: %w", r.operation, err))
	}
	return nil
}

func (c *Client) observe(operation, status string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRemoteCall(operation, status, time.Since(start))
	}
}
