package monitoring

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// WithContext adds the request id and trace ids carried by ctx to logger
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	fields := make([]zap.Field, 0, 3)
	if requestID := middleware.GetReqID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if spanID := SpanIDFromContext(ctx); spanID != "" {
		fields = append(fields, zap.String("span_id", spanID))
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// HTTPRequestLogger logs one served request. Server errors log at error
// level, client errors at warn and everything else at info.
func HTTPRequestLogger(ctx context.Context, logger *zap.Logger, method, path, clientIP string, statusCode, size int, duration time.Duration) {
	log := WithContext(ctx, logger)
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.String("client_ip", clientIP),
		zap.Int("status", statusCode),
		zap.Int("size", size),
		zap.Duration("duration", duration),
	}

	switch {
	case statusCode >= 500:
		log.Error("HTTP request", fields...)
	case statusCode >= 400:
		log.Warn("HTTP request", fields...)
	default:
		log.Info("HTTP request", fields...)
	}
}
