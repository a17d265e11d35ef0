// Package main provides a standalone health check command for the nutrition service.
// It can be used for container health checks, monitoring scripts and debugging.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/config"
	"github.com/alchemorsel/nutrition/internal/infrastructure/container"
	"github.com/alchemorsel/nutrition/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrition/pkg/healthcheck"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
	ConfigPath     string
	LocalCheck     bool
}

// report is the subset of the health response the command prints
type report struct {
	Status               healthcheck.Status `json:"status"`
	Version              string             `json:"version"`
	RemoteStoreConnected bool               `json:"remote_store_connected"`
	Timestamp            time.Time          `json:"timestamp"`
	TotalDurationMS      float64            `json:"total_duration_ms"`
	Checks               []struct {
		Name       string             `json:"name"`
		Status     healthcheck.Status `json:"status"`
		Message    string             `json:"message,omitempty"`
		DurationMS float64            `json:"duration_ms"`
	} `json:"checks"`
}

func main() {
	opts := parseFlags(os.Args[1:])

	var code int
	if opts.LocalCheck {
		code = runLocalHealthCheck(opts, os.Stdout)
	} else {
		code = runRemoteHealthCheck(opts, os.Stdout)
	}
	os.Exit(code)
}

func parseFlags(args []string) Options {
	opts := Options{}
	fs := flag.NewFlagSet("health-check", flag.ExitOnError)

	fs.StringVar(&opts.URL, "url", "", "Health endpoint URL (default $HEALTH_CHECK_URL or http://localhost:8000/health)")
	fs.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Print individual checks")
	fs.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, compact")
	fs.StringVar(&opts.ExpectedStatus, "expect", "healthy", "Lowest acceptable status: healthy or degraded")
	fs.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	fs.DurationVar(&opts.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	fs.StringVar(&opts.ConfigPath, "config", "", "Configuration file path (local mode)")
	fs.BoolVar(&opts.LocalCheck, "local", false, "Probe the record store directly instead of calling the API")

	_ = fs.Parse(args)

	if opts.URL == "" {
		opts.URL = os.Getenv("HEALTH_CHECK_URL")
	}
	if opts.URL == "" {
		opts.URL = "http://localhost:8000/health"
	}
	return opts
}

// runRemoteHealthCheck calls the health endpoint of a running server
func runRemoteHealthCheck(opts Options, out io.Writer) int {
	client := &http.Client{Timeout: opts.Timeout}

	var lastError error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			if opts.Verbose {
				fmt.Fprintf(out, "Retrying in %v... (attempt %d/%d)\n", opts.RetryDelay, attempt, opts.RetryCount)
			}
			time.Sleep(opts.RetryDelay)
		}

		resp, err := client.Get(opts.URL)
		if err != nil {
			lastError = err
			if opts.Verbose {
				fmt.Fprintf(out, "Request failed: %v\n", err)
			}
			continue
		}

		var r report
		err = json.NewDecoder(resp.Body).Decode(&r)
		resp.Body.Close()
		if err != nil {
			fmt.Fprintf(out, "Failed to decode response: %v\n", err)
			return exitCodeError
		}
		return outputResult(r, opts, out)
	}

	fmt.Fprintf(out, "Health check failed after %d attempts: %v\n", opts.RetryCount+1, lastError)
	return exitCodeError
}

// runLocalHealthCheck builds the configured record store and probes it in-process
func runLocalHealthCheck(opts Options, out io.Writer) int {
	_ = godotenv.Load()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(out, "Failed to load configuration: %v\n", err)
		return exitCodeError
	}

	log := zap.NewNop()
	store, err := container.NewRecordStore(cfg, cfg.Airtable.TableNames(), monitoring.NewMetricsCollector(log), log)
	if err != nil {
		fmt.Fprintf(out, "Failed to build record store: %v\n", err)
		return exitCodeError
	}

	hc := healthcheck.New(cfg.App.Version, log)
	hc.SetCheckTimeout(opts.Timeout)
	hc.Register(healthcheck.StoreCheckName, healthcheck.NewStoreChecker(store))

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	data, err := json.Marshal(hc.Check(ctx))
	if err != nil {
		fmt.Fprintf(out, "Failed to encode result: %v\n", err)
		return exitCodeError
	}
	var r report
	if err := json.Unmarshal(data, &r); err != nil {
		fmt.Fprintf(out, "Failed to decode result: %v\n", err)
		return exitCodeError
	}
	return outputResult(r, opts, out)
}

// outputResult prints r and maps its status to an exit code
func outputResult(r report, opts Options, out io.Writer) int {
	switch opts.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(r, "", "  ")
		fmt.Fprintln(out, string(data))
	case "compact":
		data, _ := json.Marshal(r)
		fmt.Fprintln(out, string(data))
	default:
		outputText(r, opts.Verbose, out)
	}

	switch r.Status {
	case healthcheck.StatusHealthy:
		return exitCodeSuccess
	case healthcheck.StatusDegraded:
		if opts.ExpectedStatus == string(healthcheck.StatusDegraded) {
			return exitCodeSuccess
		}
		return exitCodeFailure
	default:
		return exitCodeFailure
	}
}

func outputText(r report, verbose bool, out io.Writer) {
	fmt.Fprintf(out, "Status: %s\n", r.Status)
	fmt.Fprintf(out, "Version: %s\n", r.Version)
	fmt.Fprintf(out, "Remote store connected: %t\n", r.RemoteStoreConnected)
	fmt.Fprintf(out, "Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(out, "Duration: %.1fms\n", r.TotalDurationMS)

	if verbose && len(r.Checks) > 0 {
		fmt.Fprintln(out, "\nChecks:")
		for _, check := range r.Checks {
			fmt.Fprintf(out, "  %s: %s", check.Name, check.Status)
			if check.Message != "" {
				fmt.Fprintf(out, " (%s)", check.Message)
			}
			fmt.Fprintf(out, " [%.1fms]\n", check.DurationMS)
		}
	}
}
