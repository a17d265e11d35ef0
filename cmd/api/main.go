// Package main provides the main entry point for the nutrition API server
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/alchemorsel/nutrition/internal/infrastructure/container"
)

func main() {
	configPath := flag.String("config", os.Getenv("NUTRITION_CONFIG"), "Configuration file path")
	envFile := flag.String("env-file", ".env", "Dotenv file with AIRTABLE_API_KEY and friends")
	flag.Parse()

	// A missing .env is normal outside local development
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring %s: %v", *envFile, err)
	}

	app := fx.New(
		fx.Supply(container.ConfigPath(*configPath)),
		container.Module,
	)

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, 30*time.Second)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for a signal or for the server to ask for shutdown
	var exitCode int
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stop application gracefully: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
