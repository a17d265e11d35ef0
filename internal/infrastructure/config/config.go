// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

// Store drivers
const (
	DriverAirtable = "airtable"
	DriverMemory   = "memory"
)

// DefaultBaseID is the nutrition base the service was built against
const DefaultBaseID = "appBgJb1hzG4vFT1b"

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Airtable   AirtableConfig   `mapstructure:"airtable"`
	Store      StoreConfig      `mapstructure:"store"`
	Shopping   ShoppingConfig   `mapstructure:"shopping"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Health     HealthConfig     `mapstructure:"health"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	EnableCompression bool          `mapstructure:"enable_compression"`
}

// AirtableConfig contains remote store connection settings
type AirtableConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseID            string        `mapstructure:"base_id"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	PageSize          int           `mapstructure:"page_size"`
	Tables            TablesConfig  `mapstructure:"tables"`
}

// TablesConfig maps logical tables to Airtable table names or ids
type TablesConfig struct {
	Recipes           string `mapstructure:"recipes"`
	Ingredients       string `mapstructure:"ingredients"`
	RecipeIngredients string `mapstructure:"recipe_ingredients"`
	MealPlans         string `mapstructure:"meal_plans"`
	PlannedMeals      string `mapstructure:"planned_meals"`
	ShoppingLists     string `mapstructure:"shopping_lists"`
	ShoppingListItems string `mapstructure:"shopping_list_items"`
}

// StoreConfig selects the record store implementation
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// ShoppingConfig contains shopping list generation settings
type ShoppingConfig struct {
	LookupConcurrency int `mapstructure:"lookup_concurrency"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics bool    `mapstructure:"enable_metrics"`
	MetricsPath   string  `mapstructure:"metrics_path"`
	EnableTracing bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint  string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure  bool    `mapstructure:"otlp_insecure"`
	SamplingRate  float64 `mapstructure:"sampling_rate"`
}

// RateLimitConfig contains inbound rate limiting configuration
type RateLimitConfig struct {
	Enable         bool `mapstructure:"enable"`
	RequestsPerMin int  `mapstructure:"requests_per_min"`
	BurstSize      int  `mapstructure:"burst_size"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}

// Loader owns the viper instance so the configuration can be re-read on change
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader for configPath, or for the default search
// paths when configPath is empty
func NewLoader(configPath string) *Loader {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/nutrition")
	}

	// Enable environment variable override
	v.SetEnvPrefix("NUTRITION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The Airtable credentials are also honoured under their conventional names
	_ = v.BindEnv("airtable.api_key", "NUTRITION_AIRTABLE_API_KEY", "AIRTABLE_API_KEY")
	_ = v.BindEnv("airtable.base_id", "NUTRITION_AIRTABLE_BASE_ID", "AIRTABLE_BASE_ID")

	return &Loader{v: v}
}

// Load reads, decodes and validates the configuration
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Nutrition Planner")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_header_bytes", 1<<20) // 1MB
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.enable_compression", true)

	// Airtable defaults
	v.SetDefault("airtable.base_id", DefaultBaseID)
	v.SetDefault("airtable.base_url", "https://api.airtable.com/v0")
	v.SetDefault("airtable.timeout", "30s")
	v.SetDefault("airtable.requests_per_second", 5)
	v.SetDefault("airtable.page_size", 100)

	tables := outbound.DefaultTables()
	v.SetDefault("airtable.tables.recipes", tables.Recipes)
	v.SetDefault("airtable.tables.ingredients", tables.Ingredients)
	v.SetDefault("airtable.tables.recipe_ingredients", tables.RecipeIngredients)
	v.SetDefault("airtable.tables.meal_plans", tables.MealPlans)
	v.SetDefault("airtable.tables.planned_meals", tables.PlannedMeals)
	v.SetDefault("airtable.tables.shopping_lists", tables.ShoppingLists)
	v.SetDefault("airtable.tables.shopping_list_items", tables.ShoppingListItems)

	v.SetDefault("store.driver", DriverAirtable)
	v.SetDefault("shopping.lookup_concurrency", 4)

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.otlp_endpoint", "localhost:4318")
	v.SetDefault("monitoring.otlp_insecure", true)
	v.SetDefault("monitoring.sampling_rate", 0.1)

	// Rate limit defaults
	v.SetDefault("rate_limit.enable", true)
	v.SetDefault("rate_limit.requests_per_min", 120)
	v.SetDefault("rate_limit.burst_size", 20)

	v.SetDefault("health.cache_ttl", "5s")
	v.SetDefault("health.check_timeout", "10s")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	switch c.Store.Driver {
	case DriverAirtable:
		if c.Airtable.APIKey == "" {
			return fmt.Errorf("airtable.api_key is required (set AIRTABLE_API_KEY)")
		}
		if c.Airtable.BaseID == "" {
			return fmt.Errorf("airtable.base_id is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverAirtable, DriverMemory, c.Store.Driver)
	}

	// Validate port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Airtable.RequestsPerSecond <= 0 {
		return fmt.Errorf("airtable.requests_per_second must be positive")
	}
	if c.Airtable.PageSize < 1 || c.Airtable.PageSize > 100 {
		return fmt.Errorf("airtable.page_size must be between 1 and 100")
	}
	if c.Shopping.LookupConcurrency < 1 {
		return fmt.Errorf("shopping.lookup_concurrency must be at least 1")
	}
	if c.RateLimit.Enable && (c.RateLimit.RequestsPerMin <= 0 || c.RateLimit.BurstSize <= 0) {
		return fmt.Errorf("rate_limit.requests_per_min and rate_limit.burst_size must be positive")
	}
	if c.Monitoring.SamplingRate < 0 || c.Monitoring.SamplingRate > 1 {
		return fmt.Errorf("monitoring.sampling_rate must be between 0 and 1")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Address returns the listen address of the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// TableNames returns the configured table names
func (c AirtableConfig) TableNames() outbound.Tables {
	return outbound.Tables{
		Recipes:           c.Tables.Recipes,
		Ingredients:       c.Tables.Ingredients,
		RecipeIngredients: c.Tables.RecipeIngredients,
		MealPlans:         c.Tables.MealPlans,
		PlannedMeals:      c.Tables.PlannedMeals,
		ShoppingLists:     c.Tables.ShoppingLists,
		ShoppingListItems: c.Tables.ShoppingListItems,
	}
}
