package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nestwatch/nestwatch-core/internal/changes"
)

// changeEventRequest is the payload for /gallery-changes.
type changeEventRequest struct {
	DeviceID string `json:"deviceId"`
	Action   string `json:"action"`
	Path     string `json:"path"`
	Kind     string `json:"kind,omitempty"`
	// Timestamp is epoch milliseconds on the wire; zero means "now".
	Timestamp int64 `json:"timestamp,omitempty"`
}

// handleRecordChange records a media change event reported by the child
// app's gallery watcher.
func (s *Server) handleRecordChange(w http.ResponseWriter, r *http.Request) {
	var req changeEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		writeValidationError(w, "deviceId is required")
		return
	}
	action := changes.Action(req.Action)
	if !action.Valid() {
		writeValidationError(w, "action must be added or deleted")
		return
	}
	if req.Path == "" {
		writeValidationError(w, "path is required")
		return
	}

	reportedAt := time.Now().UTC()
	if req.Timestamp > 0 {
		reportedAt = time.UnixMilli(req.Timestamp).UTC()
	}

	event := changes.Event{
		Action:     action,
		Path:       req.Path,
		Kind:       req.Kind,
		ReportedAt: reportedAt,
	}
	s.changes.Record(req.DeviceID, event)

	s.broadcast("gallery.changed", map[string]any{
		"deviceId": req.DeviceID,
		"event":    event,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"deviceId": req.DeviceID,
		"event":    event,
	})
}

// handleListChanges returns a device's recent change events, oldest first.
func (s *Server) handleListChanges(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	events := s.changes.List(deviceID)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"deviceId": deviceID,
		"changes":  events,
		"count":    len(events),
	})
}

// handleClearChanges drops a device's change history.
func (s *Server) handleClearChanges(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	cleared := s.changes.Clear(deviceID)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"deviceId": deviceID,
		"cleared":  cleared,
	})
}
