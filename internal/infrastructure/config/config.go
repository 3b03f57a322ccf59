package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Nestwatch Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Storage   StorageConfig   `yaml:"storage"`
	History   HistoryConfig   `yaml:"history"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket event feed settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// StorageConfig contains upload file store settings.
type StorageConfig struct {
	// Path is the directory where uploaded media files are written.
	// It is created on startup if missing.
	Path string `yaml:"path"`

	// MaxUploadMB is the maximum accepted upload size in megabytes.
	MaxUploadMB int `yaml:"max_upload_mb"`

	// AllowedExtensions is the image extension allowlist (lowercase, with dot).
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// HistoryConfig contains the per-device retention bounds for in-memory stores.
type HistoryConfig struct {
	// Locations is the number of location fixes kept per device (oldest dropped).
	Locations int `yaml:"locations"`

	// Notifications is the number of notifications kept per device (tail dropped).
	Notifications int `yaml:"notifications"`

	// CameraMedia is the number of camera-sourced gallery items kept per device.
	CameraMedia int `yaml:"camera_media"`

	// Changes is the number of gallery change events kept per device.
	Changes int `yaml:"changes"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: NESTWATCH_SECTION_KEY
// For example: NESTWATCH_API_HOST, NESTWATCH_STORAGE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	ApplyEnv(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
// It is also used directly when no config file is supplied.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 60,
				Idle:  120,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Storage: StorageConfig{
			Path:              "./data/uploads",
			MaxUploadMB:       15,
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".webp", ".gif"},
		},
		History: HistoryConfig{
			Locations:     100,
			Notifications: 200,
			CameraMedia:   50,
			Changes:       50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// ApplyEnv applies environment variable overrides to the configuration.
// Environment variables follow the pattern: NESTWATCH_SECTION_KEY.
// Load calls this automatically; it is exported for the startup path that
// runs without a configuration file.
func ApplyEnv(cfg *Config) {
	// API
	if v := os.Getenv("NESTWATCH_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("NESTWATCH_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Storage
	if v := os.Getenv("NESTWATCH_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}

	// Logging
	if v := os.Getenv("NESTWATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NESTWATCH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.TLS.Enabled {
		if c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "" {
			errs = append(errs, "api.tls.cert_file and api.tls.key_file are required when TLS is enabled")
		}
	}

	// Storage validation
	if c.Storage.Path == "" {
		errs = append(errs, "storage.path is required")
	}
	if c.Storage.MaxUploadMB < 1 {
		errs = append(errs, "storage.max_upload_mb must be at least 1")
	}

	// History bounds must be positive: a zero bound would silently discard
	// every report a device sends.
	if c.History.Locations < 1 {
		errs = append(errs, "history.locations must be at least 1")
	}
	if c.History.Notifications < 1 {
		errs = append(errs, "history.notifications must be at least 1")
	}
	if c.History.CameraMedia < 1 {
		errs = append(errs, "history.camera_media must be at least 1")
	}
	if c.History.Changes < 1 {
		errs = append(errs, "history.changes must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// MaxUploadBytes returns the maximum accepted upload size in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Storage.MaxUploadMB) << 20
}
