package gallery

import (
	"strings"
	"time"
)

// Kind identifies the source of a media item.
type Kind string

const (
	KindPhoto       Kind = "photo"
	KindScreenshot  Kind = "screenshot"
	KindFrontCamera Kind = "front_camera"
	KindBackCamera  Kind = "back_camera"
)

// IsCamera reports whether the kind originates from a remote capture
// request rather than a bulk upload.
func (k Kind) IsCamera() bool {
	return k == KindFrontCamera || k == KindBackCamera
}

// Valid reports whether k is one of the recognised kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPhoto, KindScreenshot, KindFrontCamera, KindBackCamera:
		return true
	}
	return false
}

// inferKind guesses a kind from a stored file name. Stored names embed the
// upload kind as a path-safe token, so a directory scan can reconstruct it.
func inferKind(storedName string) Kind {
	switch {
	case strings.Contains(storedName, "_front_camera_"):
		return KindFrontCamera
	case strings.Contains(storedName, "_back_camera_"):
		return KindBackCamera
	case strings.Contains(storedName, "_screenshot_"):
		return KindScreenshot
	default:
		return KindPhoto
	}
}

// Item is a single media entry in a device's gallery.
type Item struct {
	StoredName   string    `json:"storedName"`
	OriginalName string    `json:"originalName,omitempty"`
	Size         int64     `json:"sizeBytes"`
	UploadedAt   time.Time `json:"uploadedAt"`
	Kind         Kind      `json:"kind"`
	RequestID    string    `json:"sourceRequestId,omitempty"`
	URL          string    `json:"url,omitempty"`
}
