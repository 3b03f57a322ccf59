package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nestwatch/nestwatch-core/internal/device"
)

// registerRequest is the payload for /register and /battery-update.
// Optional fields are pointers so an absent field is distinguishable from
// a zero value and never clobbers existing device state.
type registerRequest struct {
	DeviceID   string  `json:"deviceId"`
	DeviceName *string `json:"deviceName,omitempty"`
	Battery    *int    `json:"batteryLevel,omitempty"`
}

func (req *registerRequest) validate() error {
	if req.DeviceID == "" {
		return errors.New("deviceId is required")
	}
	if req.Battery != nil && (*req.Battery < 0 || *req.Battery > 100) {
		return errors.New("batteryLevel must be between 0 and 100")
	}
	return nil
}

// deviceSummary decorates a device with counters derived from the other
// stores at read time. Counters are never persisted on the device itself.
type deviceSummary struct {
	device.Device
	LocationCount       int `json:"locationCount"`
	NotificationCount   int `json:"notificationCount"`
	PendingCaptureCount int `json:"pendingCaptureCount"`
	GalleryCount        int `json:"galleryCount"`
}

// handleRegister creates or refreshes a device record.
//
// Registration is an upsert keyed on the caller-supplied deviceId:
// re-registering never duplicates a device and never resets fields the
// request leaves out.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	dev, err := s.registry.Upsert(req.DeviceID, device.UpsertFields{
		Name:    req.DeviceName,
		Battery: req.Battery,
	})
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	s.broadcast("device.updated", dev)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"device":  dev,
	})
}

// handleBatteryUpdate refreshes a device's battery level and last-seen time.
// An unknown device is registered on the fly with default fields, so a
// child app that lost its registration keeps reporting without a gap.
func (s *Server) handleBatteryUpdate(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if req.Battery == nil {
		writeValidationError(w, "batteryLevel is required")
		return
	}

	dev, err := s.registry.Upsert(req.DeviceID, device.UpsertFields{
		Battery: req.Battery,
	})
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	s.broadcast("device.updated", dev)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"device":  dev,
	})
}

// handleListDevices returns every registered device with derived counters.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.List()

	summaries := make([]deviceSummary, 0, len(devices))
	for _, dev := range devices {
		summaries = append(summaries, deviceSummary{
			Device:              dev,
			LocationCount:       s.telemetry.LocationCount(dev.ID),
			NotificationCount:   s.telemetry.NotificationCount(dev.ID),
			PendingCaptureCount: s.ledger.PendingCount(dev.ID),
			GalleryCount:        s.gallery.Count(dev.ID),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"devices": summaries,
		"count":   len(summaries),
	})
}

// deleteDeviceRequest is the payload for /delete-device.
type deleteDeviceRequest struct {
	DeviceID string `json:"deviceId"`
}

// handleDeleteDevice removes a device and cascades to the dependent stores.
//
// The cascade runs in fixed order (ledger, telemetry, gallery, changes,
// files) and is at-least-once rather than atomic: a crash mid-cascade can
// leave orphaned telemetry, which the next delete of the same id cleans up.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	var req deleteDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		writeValidationError(w, "deviceId is required")
		return
	}

	if !s.registry.Remove(req.DeviceID) {
		writeNotFound(w, "device not found")
		return
	}

	removedRequests := s.ledger.RemoveDevice(req.DeviceID)
	s.telemetry.RemoveDevice(req.DeviceID)
	s.gallery.Remove(req.DeviceID)
	s.changes.Clear(req.DeviceID)

	removedFiles, err := s.files.RemoveDevice(req.DeviceID)
	if err != nil {
		s.logger.Warn("removing device files failed",
			"device_id", req.DeviceID,
			"error", err,
		)
	}

	s.broadcast("device.deleted", map[string]any{"deviceId": req.DeviceID})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"deviceId":        req.DeviceID,
		"removedRequests": removedRequests,
		"removedFiles":    removedFiles,
	})
}

// handleClearAll wipes the registry and every dependent store. Uploaded
// file bytes stay on disk; only the indexes are dropped.
func (s *Server) handleClearAll(w http.ResponseWriter, _ *http.Request) {
	removedDevices := s.registry.Clear()
	removedRequests := s.ledger.Clear()
	s.telemetry.Clear()
	removedItems := s.gallery.ClearAll()
	removedChanges := s.changes.ClearAll()

	s.logger.Info("registry cleared",
		"devices", removedDevices,
		"capture_requests", removedRequests,
		"gallery_items", removedItems,
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"removedDevices":  removedDevices,
		"removedRequests": removedRequests,
		"removedItems":    removedItems,
		"removedChanges":  removedChanges,
	})
}
