package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/http/respond"
	"github.com/alchemorsel/nutrition/pkg/errors"
)

// SystemHandlers serves the banner and the router fallbacks
type SystemHandlers struct {
	version string
	logger  *zap.Logger
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(version string, logger *zap.Logger) *SystemHandlers {
	return &SystemHandlers{version: version, logger: logger}
}

// Root handles GET /
func (h *SystemHandlers) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "Nutrition Management System API",
		"version": h.version,
		"status":  "running",
	})
}

// NotFound answers unknown routes with an error envelope
func (h *SystemHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, r, h.logger, errors.NewNotFoundError("route"))
}

// MethodNotAllowed answers known routes called with the wrong method
func (h *SystemHandlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, r, h.logger, errors.NewMethodNotAllowedError(r.Method).
		WithMetadata("method", r.Method))
}
