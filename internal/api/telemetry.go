package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nestwatch/nestwatch-core/internal/device"
	"github.com/nestwatch/nestwatch-core/internal/telemetry"
)

// locationUpdateRequest is the payload for /location-update. Latitude and
// longitude are pointers so a missing coordinate is rejected rather than
// silently stored as 0,0.
type locationUpdateRequest struct {
	DeviceID  string   `json:"deviceId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Bearing   *float64 `json:"bearing,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
	// Timestamp is epoch milliseconds on the wire; zero means "now".
	Timestamp int64  `json:"timestamp,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

func (req *locationUpdateRequest) validate() error {
	if req.DeviceID == "" {
		return errors.New("deviceId is required")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return errors.New("latitude and longitude are required")
	}
	if *req.Latitude < -90 || *req.Latitude > 90 {
		return errors.New("latitude must be between -90 and 90")
	}
	if *req.Longitude < -180 || *req.Longitude > 180 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// handleLocationUpdate appends a GPS fix to the device's bounded history
// and refreshes the device's last-location snapshot. An unknown device is
// registered on the fly.
func (s *Server) handleLocationUpdate(w http.ResponseWriter, r *http.Request) {
	var req locationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	capturedAt := time.Now().UTC()
	if req.Timestamp > 0 {
		capturedAt = time.UnixMilli(req.Timestamp).UTC()
	}

	fix := telemetry.LocationFix{
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Accuracy:   req.Accuracy,
		Speed:      req.Speed,
		Bearing:    req.Bearing,
		Altitude:   req.Altitude,
		CapturedAt: capturedAt,
		Provider:   req.Provider,
		Kind:       req.Kind,
	}

	if _, err := s.registry.Upsert(req.DeviceID, device.UpsertFields{}); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	s.telemetry.AppendLocation(req.DeviceID, fix)
	if err := s.registry.SetLastLocation(req.DeviceID, &fix); err != nil {
		// The device was just upserted; a miss here means a concurrent
		// delete won the race, which is fine.
		s.logger.Debug("last location snapshot skipped", "device_id", req.DeviceID)
	}

	s.broadcast("location.updated", map[string]any{
		"deviceId": req.DeviceID,
		"location": fix,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"deviceId": req.DeviceID,
		"location": fix,
	})
}

// notificationUpdateRequest is the payload for /notification-update.
// Older child app builds send the notification title in a "text" field;
// both are accepted and title wins when both are present.
type notificationUpdateRequest struct {
	DeviceID    string `json:"deviceId"`
	ID          string `json:"id,omitempty"`
	PackageName string `json:"packageName,omitempty"`
	AppLabel    string `json:"appName,omitempty"`
	Title       string `json:"title,omitempty"`
	Text        string `json:"text,omitempty"`
	Body        string `json:"body,omitempty"`
	Category    string `json:"category,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

// handleNotificationUpdate appends a notification to the device's bounded
// history and refreshes the device's last-notification snapshot.
func (s *Server) handleNotificationUpdate(w http.ResponseWriter, r *http.Request) {
	var req notificationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		writeValidationError(w, "deviceId is required")
		return
	}

	title := req.Title
	if title == "" {
		title = req.Text
	}
	if title == "" {
		writeValidationError(w, "title or text is required")
		return
	}

	capturedAt := time.Now().UTC()
	if req.Timestamp > 0 {
		capturedAt = time.UnixMilli(req.Timestamp).UTC()
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	note := telemetry.Notification{
		ID:          id,
		PackageName: req.PackageName,
		AppLabel:    req.AppLabel,
		Title:       title,
		Body:        req.Body,
		CapturedAt:  capturedAt,
		Category:    req.Category,
		Priority:    req.Priority,
	}

	if _, err := s.registry.Upsert(req.DeviceID, device.UpsertFields{}); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	s.telemetry.AppendNotification(req.DeviceID, note)
	if err := s.registry.SetLastNotification(req.DeviceID, &note); err != nil {
		s.logger.Debug("last notification snapshot skipped", "device_id", req.DeviceID)
	}

	s.broadcast("notification.received", map[string]any{
		"deviceId":     req.DeviceID,
		"notification": note,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"deviceId":     req.DeviceID,
		"notification": note,
	})
}

// handleListLocations returns a device's location history, oldest first.
//
// Query parameters:
//   - limit: maximum number of most recent fixes to return
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	if _, err := s.registry.Get(deviceID); err != nil {
		writeNotFound(w, "device not found")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	locations := s.telemetry.Locations(deviceID, limit)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"deviceId":  deviceID,
		"locations": locations,
		"count":     len(locations),
	})
}

// handleListNotifications returns a device's notification history, newest
// first.
//
// Query parameters:
//   - limit: maximum number of notifications to return
//   - app: filter by package name or app label
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	if _, err := s.registry.Get(deviceID); err != nil {
		writeNotFound(w, "device not found")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	appFilter := r.URL.Query().Get("app")
	notifications := s.telemetry.Notifications(deviceID, limit, appFilter)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"deviceId":      deviceID,
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// handleNotificationStats returns on-demand statistics over a device's
// stored notification history.
func (s *Server) handleNotificationStats(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	if _, err := s.registry.Get(deviceID); err != nil {
		writeNotFound(w, "device not found")
		return
	}

	stats := s.telemetry.Stats(deviceID)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"deviceId": deviceID,
		"stats":    stats,
	})
}

// parseLimit converts a limit query value to an int; zero means unlimited.
func parseLimit(v string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
