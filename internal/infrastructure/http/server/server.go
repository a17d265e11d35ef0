// Package server provides the HTTP server of the nutrition API
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

// APIPrefix is where the nutrition endpoints are mounted
const APIPrefix = "/api/nutrition"

// MetricsSource provides the request observer and the exposition handler
type MetricsSource interface {
	middleware.HTTPObserver
	Handler() http.Handler
}

// Server represents the HTTP server
type Server struct {
	config        *config.Config
	logger        *zap.Logger
	router        *chi.Mux
	server        *http.Server
	mealPlans     inbound.MealPlanService
	shoppingLists inbound.ShoppingListService
	health        *healthcheck.HealthCheck
	metrics       MetricsSource
}

// NewServer creates a new HTTP server instance. metrics may be nil.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	mealPlans inbound.MealPlanService,
	shoppingLists inbound.ShoppingListService,
	health *healthcheck.HealthCheck,
	metrics MetricsSource,
) *Server {
	s := &Server{
		config:        cfg,
		logger:        logger.Named("http"),
		mealPlans:     mealPlans,
		shoppingLists: shoppingLists,
		health:        health,
		metrics:       metrics,
	}

	s.router = s.setupRouter()

	s.server = &http.Server{
		Addr: cfg.Address(),
		Handler: otelhttp.NewHandler(s.router, "nutrition-api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	return s
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	system := handlers.NewSystemHandlers(s.config.App.Version, s.logger)

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger, "/health", "/health/live", "/health/ready", s.config.Monitoring.MetricsPath))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security(s.config.IsProduction()))
	r.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	if s.metrics != nil {
		r.Use(middleware.Metrics(s.metrics))
	}
	if s.config.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
	}
	if s.config.Server.EnableCompression {
		r.Use(newCompressor().Handler)
	}

	r.NotFound(system.NotFound)
	r.MethodNotAllowed(system.MethodNotAllowed)

	r.Get("/", system.Root)

	r.Get("/health", s.health.Handler())
	r.Get("/health/live", s.health.LivenessHandler())
	r.Get("/health/ready", s.health.ReadinessHandler())

	if s.metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Method(http.MethodGet, s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	// API routes
	api := handlers.NewNutritionHandlers(s.mealPlans, s.shoppingLists, s.logger)
	r.Route(APIPrefix, func(r chi.Router) {
		if s.config.RateLimit.Enable {
			r.Use(middleware.RateLimit(s.config.RateLimit.RequestsPerMin, s.config.RateLimit.BurstSize, s.logger))
		}
		r.Use(middleware.MaxBody(s.config.Server.MaxBodyBytes))
		r.Use(middleware.JSONOnly(s.logger))
		api.Routes(r)
	})

	return r
}

// newCompressor compresses JSON with gzip, deflate and brotli
func newCompressor() *chimiddleware.Compressor {
	c := chimiddleware.NewCompressor(5, "application/json")
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}

// Handler exposes the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server",
		zap.String("address", ln.Addr().String()),
		zap.String("environment", s.config.App.Environment),
	)

	// Enable HTTP/2
	if err := http2.ConfigureServer(s.server, nil); err != nil {
		s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
	}

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
