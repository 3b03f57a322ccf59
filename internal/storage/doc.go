// Package storage persists uploaded media files for Nestwatch Core.
//
// The registry itself is in-memory only; uploaded file bytes are the one
// thing written to disk. Files are stored flat under a single configured
// directory with names of the form:
//
//	<deviceID>_<kind>_<unixms>_<random><ext>
//
// The device-id prefix makes a directory scan sufficient to rebuild a
// device's gallery after a process restart, when the in-memory index is
// gone but the bytes survived.
//
// The store enforces an upload size limit and an image extension
// allowlist; violations surface as ErrFileTooLarge / ErrUnsupportedType.
package storage
