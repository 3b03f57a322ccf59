package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device id does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrMissingID is returned when an operation is attempted without a device id.
	// Device identity is always caller-supplied; there is no server-side fallback.
	ErrMissingID = errors.New("device: id is required")
)
