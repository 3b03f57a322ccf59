package capture

import "errors"

// Domain errors for the capture package.
var (
	// ErrRequestNotFound is returned when a request id does not exist.
	// Uploads cannot create their own request record; the ask must come first.
	ErrRequestNotFound = errors.New("capture: request not found")

	// ErrRequestExists is returned when creating a request with an id that
	// is already in the ledger.
	ErrRequestExists = errors.New("capture: request already exists")

	// ErrRequestTerminal is returned when attempting to transition a request
	// that is already captured or failed. Terminal states are final.
	ErrRequestTerminal = errors.New("capture: request already completed")

	// ErrInvalidFacing is returned when a camera facing value is not recognised.
	ErrInvalidFacing = errors.New("capture: invalid camera facing")
)
