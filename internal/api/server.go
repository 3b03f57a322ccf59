package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nestwatch/nestwatch-core/internal/capture"
	"github.com/nestwatch/nestwatch-core/internal/changes"
	"github.com/nestwatch/nestwatch-core/internal/device"
	"github.com/nestwatch/nestwatch-core/internal/gallery"
	"github.com/nestwatch/nestwatch-core/internal/infrastructure/config"
	"github.com/nestwatch/nestwatch-core/internal/infrastructure/logging"
	"github.com/nestwatch/nestwatch-core/internal/storage"
	"github.com/nestwatch/nestwatch-core/internal/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Registry  *device.Registry
	Ledger    *capture.Ledger
	Telemetry *telemetry.Store
	Gallery   *gallery.Gallery
	Changes   *changes.Log
	Files     *storage.Store
	// MaxUploadBytes bounds incoming request bodies. Zero falls back to a
	// conservative default.
	MaxUploadBytes int64
	Version        string
}

// defaultMaxUploadBytes is used when Deps does not carry a bound.
const defaultMaxUploadBytes = 15 << 20

// Server is the HTTP API server for Nestwatch Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	registry  *device.Registry
	ledger    *capture.Ledger
	telemetry *telemetry.Store
	gallery   *gallery.Gallery
	changes   *changes.Log
	files     *storage.Store
	maxBody   int64
	version   string
	startTime time.Time
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, stores)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("capture ledger is required")
	}
	if deps.Telemetry == nil {
		return nil, fmt.Errorf("telemetry store is required")
	}
	if deps.Gallery == nil {
		return nil, fmt.Errorf("gallery is required")
	}
	if deps.Changes == nil {
		return nil, fmt.Errorf("change log is required")
	}
	if deps.Files == nil {
		return nil, fmt.Errorf("file store is required")
	}

	maxBody := deps.MaxUploadBytes
	if maxBody <= 0 {
		maxBody = defaultMaxUploadBytes
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		registry:  deps.Registry,
		ledger:    deps.Ledger,
		telemetry: deps.Telemetry,
		gallery:   deps.Gallery,
		changes:   deps.Changes,
		files:     deps.Files,
		maxBody:   maxBody,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// broadcast publishes an event to the WebSocket hub if one is running.
func (s *Server) broadcast(channel string, payload any) {
	if s.hub != nil {
		s.hub.Broadcast(channel, payload)
	}
}

// wsClientCount returns the number of connected WebSocket clients.
func (s *Server) wsClientCount() int {
	if s.hub == nil {
		return 0
	}
	return s.hub.ClientCount()
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
