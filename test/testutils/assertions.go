// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/nutrition/pkg/errors"
)

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(rec *httptest.ResponseRecorder, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, rec, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, rec.Code, msgAndArgs...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(rec *httptest.ResponseRecorder, target interface{}) {
	require.NotNil(ha.t, rec, "Response should not be nil")

	contentType := rec.Header().Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	require.NoError(ha.t, json.Unmarshal(rec.Body.Bytes(), target), "Response should be valid JSON")
}

// ErrorResponse asserts the status and error code of an error envelope
func (ha *HTTPAssertions) ErrorResponse(rec *httptest.ResponseRecorder, expectedStatus int, expectedCode errors.ErrorCode) errors.ErrorDetails {
	ha.StatusCode(rec, expectedStatus)

	var body errors.ErrorResponse
	ha.JSONResponse(rec, &body)
	assert.Equal(ha.t, expectedCode, body.Error.Code)
	assert.NotEmpty(ha.t, body.Error.Message)
	return body.Error
}

// SecurityHeaders asserts that security headers are present
func (ha *HTTPAssertions) SecurityHeaders(rec *httptest.ResponseRecorder) {
	require.NotNil(ha.t, rec, "Response should not be nil")

	for _, header := range []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Referrer-Policy",
	} {
		assert.NotEmpty(ha.t, rec.Header().Get(header), "Security header %s should be present", header)
	}
}
