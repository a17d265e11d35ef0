package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AIRTABLE_API_KEY", "keyFromEnv")

	cfg, err := Load(writeConfig(t, "app:\n  environment: test\n"))

	require.NoError(t, err)
	assert.Equal(t, "keyFromEnv", cfg.Airtable.APIKey)
	assert.Equal(t, DefaultBaseID, cfg.Airtable.BaseID)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 5.0, cfg.Airtable.RequestsPerSecond)
	assert.Equal(t, 100, cfg.Airtable.PageSize)
	assert.Equal(t, DriverAirtable, cfg.Store.Driver)
	assert.Equal(t, 4, cfg.Shopping.LookupConcurrency)
	assert.Equal(t, "/metrics", cfg.Monitoring.MetricsPath)
	assert.Equal(t, "test", cfg.App.Environment)

	tables := cfg.Airtable.TableNames()
	assert.Equal(t, "Recipes", tables.Recipes)
	assert.Equal(t, "Shopping_List_Items", tables.ShoppingListItems)
}

func TestLoad_FileAndEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9100
airtable:
  api_key: keyFromFile
  tables:
    recipes: tblRecipes123
shopping:
  lookup_concurrency: 8
`)
	t.Setenv("NUTRITION_SERVER_PORT", "9200")
	t.Setenv("AIRTABLE_BASE_ID", "appOther")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "keyFromFile", cfg.Airtable.APIKey)
	assert.Equal(t, "appOther", cfg.Airtable.BaseID)
	assert.Equal(t, "tblRecipes123", cfg.Airtable.TableNames().Recipes)
	assert.Equal(t, "Meal_Plans", cfg.Airtable.TableNames().MealPlans)
	assert.Equal(t, 8, cfg.Shopping.LookupConcurrency)
	assert.Equal(t, "0.0.0.0:9200", cfg.Address())
}

func TestLoad_MissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("AIRTABLE_API_KEY", "")

	_, err := Load(writeConfig(t, "store:\n  driver: airtable\n"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "airtable.api_key")
}

func TestLoad_MemoryDriverNeedsNoCredentials(t *testing.T) {
	t.Setenv("AIRTABLE_API_KEY", "")
	t.Setenv("NUTRITION_STORE_DRIVER", "memory")

	cfg, err := Load(writeConfig(t, "app:\n  name: dev\n"))

	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:       AppConfig{Name: "svc"},
			Server:    ServerConfig{Port: 8000},
			Airtable:  AirtableConfig{APIKey: "k", BaseID: "b", RequestsPerSecond: 5, PageSize: 100},
			Store:     StoreConfig{Driver: DriverAirtable},
			Shopping:  ShoppingConfig{LookupConcurrency: 4},
			RateLimit: RateLimitConfig{Enable: true, RequestsPerMin: 60, BurstSize: 10},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"unknown driver":   func(c *Config) { c.Store.Driver = "postgres" },
		"port range":       func(c *Config) { c.Server.Port = 70000 },
		"page size":        func(c *Config) { c.Airtable.PageSize = 500 },
		"throttle":         func(c *Config) { c.Airtable.RequestsPerSecond = 0 },
		"lookups":          func(c *Config) { c.Shopping.LookupConcurrency = 0 },
		"rate limit burst": func(c *Config) { c.RateLimit.BurstSize = 0 },
		"sampling":         func(c *Config) { c.Monitoring.SamplingRate = 1.5 },
		"app name":         func(c *Config) { c.App.Name = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWatch_NoFileIsNoop(t *testing.T) {
	t.Setenv("AIRTABLE_API_KEY", "k")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	loader := NewLoader("")
	_, err = loader.Load()
	require.NoError(t, err)

	assert.False(t, loader.Watch(zap.NewNop(), func(*Config) {}))
}

func TestLevelUpdater(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	update := LevelUpdater(level)

	update(&Config{App: AppConfig{LogLevel: "debug"}})
	assert.Equal(t, zapcore.DebugLevel, level.Level())

	update(&Config{App: AppConfig{LogLevel: "nonsense"}})
	assert.Equal(t, zapcore.InfoLevel, level.Level())
}
