package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nestwatch/nestwatch-core/internal/capture"
	"github.com/nestwatch/nestwatch-core/internal/gallery"
	"github.com/nestwatch/nestwatch-core/internal/storage"
)

// captureRequestPayload is the body for /request-front-camera and
// /request-back-camera. A client-supplied requestId is honoured so the
// parental app can correlate its own asks; when absent one is generated.
type captureRequestPayload struct {
	DeviceID    string `json:"deviceId"`
	RequestID   string `json:"requestId,omitempty"`
	RequesterID string `json:"requesterId,omitempty"`
}

// handleRequestFrontCamera queues a front-camera capture for the device.
func (s *Server) handleRequestFrontCamera(w http.ResponseWriter, r *http.Request) {
	s.createCaptureRequest(w, r, capture.FacingFront)
}

// handleRequestBackCamera queues a back-camera capture for the device.
func (s *Server) handleRequestBackCamera(w http.ResponseWriter, r *http.Request) {
	s.createCaptureRequest(w, r, capture.FacingBack)
}

// createCaptureRequest validates the payload, checks the device exists, and
// records a pending request in the ledger. The child app discovers it on
// its next poll of /pending-camera-requests.
func (s *Server) createCaptureRequest(w http.ResponseWriter, r *http.Request, facing capture.Facing) {
	var req captureRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		writeValidationError(w, "deviceId is required")
		return
	}

	if _, err := s.registry.Get(req.DeviceID); err != nil {
		writeNotFound(w, "device not found")
		return
	}

	created, err := s.ledger.Create(req.DeviceID, facing, req.RequesterID, req.RequestID)
	if err != nil {
		if errors.Is(err, capture.ErrRequestExists) {
			writeValidationError(w, "requestId already in use")
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	s.logger.Info("capture request created",
		"request_id", created.ID,
		"device_id", created.DeviceID,
		"facing", created.Facing,
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"request": created,
	})
}

// handlePendingCameraRequests is the child app's poll mailbox: it returns
// the device's pending requests oldest first so captures happen in the
// order they were asked for.
//
// Query parameters:
//   - facing: restrict to front or back requests
func (s *Server) handlePendingCameraRequests(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	if _, err := s.registry.Get(deviceID); err != nil {
		writeNotFound(w, "device not found")
		return
	}

	var facing capture.Facing
	if v := r.URL.Query().Get("facing"); v != "" {
		parsed, err := capture.ParseFacing(v)
		if err != nil {
			writeValidationError(w, "facing must be front or back")
			return
		}
		facing = parsed
	}

	pending := s.ledger.ListPending(deviceID, facing)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"deviceId": deviceID,
		"requests": pending,
		"count":    len(pending),
	})
}

// handleUploadFrontCamera fulfils a pending front-camera request.
func (s *Server) handleUploadFrontCamera(w http.ResponseWriter, r *http.Request) {
	s.fulfilCaptureUpload(w, r, capture.FacingFront)
}

// handleUploadBackCamera fulfils a pending back-camera request.
func (s *Server) handleUploadBackCamera(w http.ResponseWriter, r *http.Request) {
	s.fulfilCaptureUpload(w, r, capture.FacingBack)
}

// fulfilCaptureUpload receives the child app's multipart image for a
// pending request and completes the correlation protocol.
//
// The ledger is consulted before any bytes touch disk, so an unknown or
// already-terminal request id mutates nothing. When the file store rejects
// or fails the write, the request is marked failed so a later status poll
// observes the failure instead of a pending request that never resolves.
func (s *Server) fulfilCaptureUpload(w http.ResponseWriter, r *http.Request, facing capture.Facing) {
	if err := r.ParseMultipartForm(s.maxBody); err != nil {
		writeValidationError(w, "invalid multipart form")
		return
	}

	requestID := r.FormValue("requestId")
	if requestID == "" {
		writeValidationError(w, "requestId is required")
		return
	}

	pending, err := s.ledger.Get(requestID)
	if err != nil {
		writeNotFound(w, "capture request not found")
		return
	}
	if pending.Status.Terminal() {
		writeValidationError(w, "capture request already completed")
		return
	}
	if pending.Facing != facing {
		writeValidationError(w, "capture request targets the "+string(pending.Facing)+" camera")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeValidationError(w, "image file is required")
		return
	}
	defer file.Close()

	kind := gallery.KindFrontCamera
	if facing == capture.FacingBack {
		kind = gallery.KindBackCamera
	}

	stored, err := s.files.Save(pending.DeviceID, string(kind), header.Filename, file)
	if err != nil {
		s.failCapture(requestID, err)
		if errors.Is(err, storage.ErrFileTooLarge) || errors.Is(err, storage.ErrUnsupportedType) {
			writeUploadError(w, err.Error())
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	fulfilled, err := s.ledger.Fulfill(requestID, stored)
	if err != nil {
		if errors.Is(err, capture.ErrRequestTerminal) {
			// A concurrent upload won the race for the same request.
			writeValidationError(w, "capture request already completed")
			return
		}
		writeNotFound(w, "capture request not found")
		return
	}

	s.gallery.Add(fulfilled.DeviceID, gallery.Item{
		StoredName:   stored.Name,
		OriginalName: stored.OriginalName,
		Size:         stored.Size,
		UploadedAt:   time.Now().UTC(),
		Kind:         kind,
		RequestID:    fulfilled.ID,
		URL:          "/media/" + stored.Name,
	})

	s.broadcast("capture.completed", fulfilled)

	s.logger.Info("capture request fulfilled",
		"request_id", fulfilled.ID,
		"device_id", fulfilled.DeviceID,
		"stored_name", stored.Name,
		"size_bytes", stored.Size,
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"request": fulfilled,
	})
}

// failCapture transitions a request to failed after an upload error.
// Best effort: the request may have gone terminal concurrently.
func (s *Server) failCapture(requestID string, cause error) {
	if _, err := s.ledger.Fail(requestID, cause.Error()); err != nil {
		s.logger.Debug("capture fail transition skipped",
			"request_id", requestID,
			"error", err,
		)
	}
}

// handleCheckCameraRequest returns the current state of a capture request.
// The parental app polls this until the status goes terminal.
func (s *Server) handleCheckCameraRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")

	req, err := s.ledger.Get(requestID)
	if err != nil {
		writeNotFound(w, "capture request not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"request": req,
	})
}
