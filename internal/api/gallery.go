package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nestwatch/nestwatch-core/internal/device"
	"github.com/nestwatch/nestwatch-core/internal/gallery"
	"github.com/nestwatch/nestwatch-core/internal/storage"
)

// handleUploadGallery receives a bulk photo upload from the child app.
func (s *Server) handleUploadGallery(w http.ResponseWriter, r *http.Request) {
	s.receiveMediaUpload(w, r, gallery.KindPhoto)
}

// handleUploadScreenshot receives a screenshot upload from the child app.
func (s *Server) handleUploadScreenshot(w http.ResponseWriter, r *http.Request) {
	s.receiveMediaUpload(w, r, gallery.KindScreenshot)
}

// receiveMediaUpload stores a multipart image and indexes it in the
// device's gallery. Unlike camera uploads there is no request to
// correlate; the device id travels in the form.
func (s *Server) receiveMediaUpload(w http.ResponseWriter, r *http.Request, kind gallery.Kind) {
	if err := r.ParseMultipartForm(s.maxBody); err != nil {
		writeValidationError(w, "invalid multipart form")
		return
	}

	deviceID := r.FormValue("deviceId")
	if deviceID == "" {
		writeValidationError(w, "deviceId is required")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeValidationError(w, "image file is required")
		return
	}
	defer file.Close()

	if _, err := s.registry.Upsert(deviceID, device.UpsertFields{}); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	stored, err := s.files.Save(deviceID, string(kind), header.Filename, file)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) || errors.Is(err, storage.ErrUnsupportedType) {
			writeUploadError(w, err.Error())
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	item := gallery.Item{
		StoredName:   stored.Name,
		OriginalName: stored.OriginalName,
		Size:         stored.Size,
		UploadedAt:   time.Now().UTC(),
		Kind:         kind,
		URL:          "/media/" + stored.Name,
	}
	s.gallery.Add(deviceID, item)

	s.broadcast("gallery.updated", map[string]any{
		"deviceId": deviceID,
		"item":     item,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"deviceId": deviceID,
		"item":     item,
	})
}

// handleListGallery returns a device's media listing.
//
// Query parameters:
//   - kind: restrict to photo, screenshot, front_camera, or back_camera
func (s *Server) handleListGallery(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	var kind gallery.Kind
	if v := r.URL.Query().Get("kind"); v != "" {
		kind = gallery.Kind(v)
		if !kind.Valid() {
			writeValidationError(w, "unknown media kind: "+v)
			return
		}
	}

	s.listMedia(w, deviceID, kind)
}

// handleListScreenshots returns only the device's screenshots. Kept as a
// dedicated path because the parental app calls it directly.
func (s *Server) handleListScreenshots(w http.ResponseWriter, r *http.Request) {
	s.listMedia(w, chi.URLParam(r, "deviceId"), gallery.KindScreenshot)
}

func (s *Server) listMedia(w http.ResponseWriter, deviceID string, kind gallery.Kind) {
	items, err := s.gallery.List(deviceID, kind)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	// Stored names scanned from disk have no URL yet.
	for i := range items {
		if items[i].URL == "" {
			items[i].URL = "/media/" + items[i].StoredName
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"deviceId": deviceID,
		"items":    items,
		"count":    len(items),
	})
}

// handleClearGallery drops a device's gallery index. The bytes stay on
// disk so already-issued /media/ links keep working, but the cleared
// gallery never re-surfaces them in listings.
func (s *Server) handleClearGallery(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	cleared := s.gallery.Clear(deviceID)

	s.logger.Info("gallery cleared", "device_id", deviceID, "items", cleared)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"deviceId": deviceID,
		"cleared":  cleared,
	})
}

// handleServeMedia streams a stored file by name.
func (s *Server) handleServeMedia(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	f, err := s.files.Open(name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidName):
			writeValidationError(w, "invalid file name")
		case errors.Is(err, storage.ErrFileNotFound):
			writeNotFound(w, "file not found")
		default:
			writeInternalError(w, err.Error())
		}
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeInternalError(w, "failed to stat stored file")
		return
	}

	http.ServeContent(w, r, name, info.ModTime(), f)
}
