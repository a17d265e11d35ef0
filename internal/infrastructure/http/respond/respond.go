// Package respond writes JSON bodies and error envelopes for the HTTP layer
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/pkg/errors"
)

// JSON writes body with the given status
func JSON(w http.ResponseWriter, logger *zap.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// Error writes err as an error envelope. Anything that is not an AppError
// is reported as an internal error without leaking its text.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Wrap(err, "An unexpected error occurred")
	}

	requestID := middleware.GetReqID(r.Context())
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("code", string(appErr.Code)),
		zap.String("message", appErr.Message),
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.NamedError("cause", appErr.Cause))
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}

	JSON(w, logger, status, errors.ToErrorResponse(appErr, requestID))
}
