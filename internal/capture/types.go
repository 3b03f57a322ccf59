package capture

import (
	"time"

	"github.com/nestwatch/nestwatch-core/internal/storage"
)

// Facing identifies which camera a request targets.
type Facing string

// Facing constants.
const (
	FacingFront Facing = "front"
	FacingBack  Facing = "back"
)

// ParseFacing validates a wire facing value.
func ParseFacing(s string) (Facing, error) {
	switch Facing(s) {
	case FacingFront, FacingBack:
		return Facing(s), nil
	default:
		return "", ErrInvalidFacing
	}
}

// Status is the request lifecycle state.
type Status string

// Status constants.
const (
	StatusPending  Status = "pending"
	StatusCaptured Status = "captured"
	StatusFailed   Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCaptured || s == StatusFailed
}

// Request represents one camera capture ask and its eventual outcome.
type Request struct {
	// ID is unique across the ledger; front and back share one id space.
	ID string `json:"requestId"`

	// DeviceID is the target child device.
	DeviceID string `json:"deviceId"`

	// RequesterID identifies the originating parental client. Informational.
	RequesterID string `json:"requesterId,omitempty"`

	// Facing is the camera the child should use.
	Facing Facing `json:"cameraFacing"`

	// Status is the lifecycle state (pending, captured, failed).
	Status Status `json:"status"`

	// RequestedAt is when the ask was created.
	RequestedAt time.Time `json:"requestedAt"`

	// CapturedAt is set when the request reaches the captured state.
	CapturedAt *time.Time `json:"capturedAt,omitempty"`

	// Image is the stored-file descriptor, set only after capture.
	Image *storage.StoredFile `json:"image,omitempty"`

	// FailureReason is set only on failure.
	FailureReason string `json:"failureReason,omitempty"`

	// seq orders requests by creation for stable pending listings.
	seq uint64
}

// Clone returns an independent copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	cpy := *r
	if r.CapturedAt != nil {
		at := *r.CapturedAt
		cpy.CapturedAt = &at
	}
	if r.Image != nil {
		img := *r.Image
		cpy.Image = &img
	}
	return &cpy
}
