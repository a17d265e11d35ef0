// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/application/mealplan"
	"github.com/alchemorsel/nutrition/internal/application/shopping"
	"github.com/alchemorsel/nutrition/internal/infrastructure/airtable"
	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/http/server"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrition/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
	"github.com/alchemorsel/nutrition/pkg/logger"
)

// ConfigPath is the configuration file to load. Empty means the default search paths.
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	StoreModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HealthModule,
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,

	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	}),
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) *config.Loader {
		return config.NewLoader(string(path))
	},
	func(loader *config.Loader) (*config.Config, error) {
		return loader.Load()
	},
)

// LoggerModule provides logging. The atomic level is shared with the config watcher.
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		return logger.NewWithLevel(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.IsDevelopment(),
		})
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(m *monitoring.MetricsCollector) outbound.Telemetry { return m },
	func(m *monitoring.MetricsCollector) server.MetricsSource { return m },
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    "nutrition-api",
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			Insecure:       cfg.Monitoring.OTLPInsecure,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
)

// StoreModule provides the record store selected by store.driver
var StoreModule = fx.Provide(
	func(cfg *config.Config) outbound.Tables {
		return cfg.Airtable.TableNames()
	},
	NewRecordStore,
)

// NewRecordStore builds the configured record store
func NewRecordStore(
	cfg *config.Config,
	tables outbound.Tables,
	metrics *monitoring.MetricsCollector,
	log *zap.Logger,
) (outbound.RecordStore, error) {
	switch cfg.Store.Driver {
	case config.DriverAirtable:
		client := airtable.NewClient(airtable.Config{
			APIKey:            cfg.Airtable.APIKey,
			BaseID:            cfg.Airtable.BaseID,
			BaseURL:           cfg.Airtable.BaseURL,
			Timeout:           cfg.Airtable.Timeout,
			RequestsPerSecond: cfg.Airtable.RequestsPerSecond,
			PageSize:          cfg.Airtable.PageSize,
		}, metrics, log)
		log.Info("Using Airtable record store", zap.String("base_id", cfg.Airtable.BaseID))
		return airtable.NewRecordStore(client, tables, log), nil
	case config.DriverMemory:
		log.Warn("Using in-memory record store; data is lost on restart")
		return memory.NewRecordStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	fx.Annotate(
		mealplan.NewService,
		fx.As(new(inbound.MealPlanService)),
	),

	func(cfg *config.Config) shopping.Config {
		return shopping.Config{LookupConcurrency: cfg.Shopping.LookupConcurrency}
	},
	fx.Annotate(
		shopping.NewService,
		fx.As(new(inbound.ShoppingListService)),
	),
)

// HealthModule provides the health check registry
var HealthModule = fx.Provide(NewHealthCheck)

// NewHealthCheck registers the store probe, instrumented on the metrics registry
func NewHealthCheck(
	cfg *config.Config,
	store outbound.RecordStore,
	metrics *monitoring.MetricsCollector,
	log *zap.Logger,
) *healthcheck.HealthCheck {
	health := healthcheck.New(cfg.App.Version, log)
	health.SetCacheTTL(cfg.Health.CacheTTL)
	health.SetCheckTimeout(cfg.Health.CheckTimeout)

	hm := healthcheck.NewHealthMetrics(metrics.Registry(), "nutrition")
	health.Register(healthcheck.StoreCheckName,
		healthcheck.WithMetrics(hm, healthcheck.StoreCheckName, healthcheck.NewStoreChecker(store)))
	return health
}

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	server.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	loader *config.Loader,
	level zap.AtomicLevel,
	log *zap.Logger,
	tracing *monitoring.TracingProvider,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting nutrition service",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("store", cfg.Store.Driver),
			)

			if loader.Watch(log, config.LevelUpdater(level)) {
				log.Info("Watching configuration file for log level changes")
			}

			// Bind before returning so a taken port fails startup
			ln, err := net.Listen("tcp", cfg.Address())
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.Address(), err)
			}

			go func() {
				if err := srv.Serve(ln); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down nutrition service")

			if cfg.Server.ShutdownTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
				defer cancel()
			}

			// Shutdown HTTP server
			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			if err := tracing.Shutdown(ctx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}

			// Flush logs
			_ = log.Sync()

			return nil
		},
	})
}
