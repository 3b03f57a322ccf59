package storage

import "errors"

// Domain errors for the storage package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, storage.ErrFileTooLarge) {
//	    // reject the upload
//	}
var (
	// ErrFileTooLarge is returned when an upload exceeds the configured size limit.
	ErrFileTooLarge = errors.New("storage: file too large")

	// ErrUnsupportedType is returned when an upload's extension is not allowlisted.
	ErrUnsupportedType = errors.New("storage: unsupported file type")

	// ErrFileNotFound is returned when a stored file name does not exist.
	ErrFileNotFound = errors.New("storage: file not found")

	// ErrInvalidName is returned when a requested file name is empty or
	// attempts to escape the storage directory.
	ErrInvalidName = errors.New("storage: invalid file name")
)
