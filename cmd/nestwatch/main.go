// Nestwatch Core - parental monitoring relay
//
// This is the main entry point for the Nestwatch Core relay. It wires the
// in-memory stores (device registry, capture ledger, telemetry, gallery,
// change log), the upload file store, and the HTTP/WebSocket server, then
// waits for a shutdown signal. The only state that survives a restart is
// the uploaded media bytes on disk.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nestwatch/nestwatch-core/internal/api"
	"github.com/nestwatch/nestwatch-core/internal/capture"
	"github.com/nestwatch/nestwatch-core/internal/changes"
	"github.com/nestwatch/nestwatch-core/internal/device"
	"github.com/nestwatch/nestwatch-core/internal/gallery"
	"github.com/nestwatch/nestwatch-core/internal/infrastructure/config"
	"github.com/nestwatch/nestwatch-core/internal/infrastructure/logging"
	"github.com/nestwatch/nestwatch-core/internal/storage"
	"github.com/nestwatch/nestwatch-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Nestwatch Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Upload file store (the only disk-backed component)
	files, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialising file store: %w", err)
	}
	log.Info("file store ready",
		"path", cfg.Storage.Path,
		"max_upload_mb", cfg.Storage.MaxUploadMB,
	)

	// In-memory stores
	registry := device.NewRegistry()
	registry.SetLogger(log)

	ledger := capture.NewLedger()
	telemetryStore := telemetry.NewStore(cfg.History.Locations, cfg.History.Notifications)
	mediaGallery := gallery.NewGallery(files, gallery.WithCameraCap(cfg.History.CameraMedia))
	changeLog := changes.NewLog(cfg.History.Changes)

	log.Info("stores initialised",
		"location_cap", cfg.History.Locations,
		"notification_cap", cfg.History.Notifications,
		"camera_media_cap", cfg.History.CameraMedia,
		"change_cap", cfg.History.Changes,
	)

	// API server
	server, err := api.New(api.Deps{
		Config:         cfg.API,
		WS:             cfg.WebSocket,
		Logger:         log,
		Registry:       registry,
		Ledger:         ledger,
		Telemetry:      telemetryStore,
		Gallery:        mediaGallery,
		Changes:        changeLog,
		Files:          files,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Version:        version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("Nestwatch Core stopped")
	return nil
}

// loadConfig resolves the configuration file path and loads it. A missing
// file is not fatal when the default path is in use: the relay runs fine
// on defaults plus environment overrides.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("NESTWATCH_CONFIG")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg = config.Default()
			config.ApplyEnv(cfg)
			if validateErr := cfg.Validate(); validateErr != nil {
				return nil, validateErr
			}
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}
