package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// The paths are flat and fixed: they are the protocol spoken by the
// deployed child and parental apps and cannot be versioned or nested
// without breaking them.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health and metrics
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	// Device registry
	r.Post("/register", s.handleRegister)
	r.Post("/battery-update", s.handleBatteryUpdate)
	r.Get("/devices", s.handleListDevices)
	r.Delete("/delete-device", s.handleDeleteDevice)
	r.Delete("/clear", s.handleClearAll)

	// Telemetry
	r.Post("/location-update", s.handleLocationUpdate)
	r.Post("/notification-update", s.handleNotificationUpdate)
	r.Get("/locations/{deviceId}", s.handleListLocations)
	r.Get("/notifications/{deviceId}", s.handleListNotifications)
	r.Get("/notification-stats/{deviceId}", s.handleNotificationStats)

	// Camera capture correlation protocol
	r.Post("/request-front-camera", s.handleRequestFrontCamera)
	r.Post("/request-back-camera", s.handleRequestBackCamera)
	r.Get("/pending-camera-requests/{deviceId}", s.handlePendingCameraRequests)
	r.Post("/upload-front-camera", s.handleUploadFrontCamera)
	r.Post("/upload-back-camera", s.handleUploadBackCamera)
	r.Get("/check-camera-request/{requestId}", s.handleCheckCameraRequest)

	// Media gallery
	r.Post("/upload-gallery", s.handleUploadGallery)
	r.Post("/upload-screenshot", s.handleUploadScreenshot)
	r.Get("/gallery/{deviceId}", s.handleListGallery)
	r.Get("/screenshots/{deviceId}", s.handleListScreenshots)
	r.Delete("/clear-gallery/{deviceId}", s.handleClearGallery)
	r.Get("/media/{filename}", s.handleServeMedia)

	// Gallery change log
	r.Post("/gallery-changes", s.handleRecordChange)
	r.Get("/gallery-changes/{deviceId}", s.handleListChanges)
	r.Delete("/gallery-changes/{deviceId}", s.handleClearChanges)

	// WebSocket event feed
	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = "/ws"
	}
	r.Get(wsPath, s.handleWebSocket)

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  "ok",
		"version": s.version,
	})
}
