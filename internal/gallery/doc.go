// Package gallery maintains the per-device index of uploaded media for
// Nestwatch Core.
//
// The index is in-memory. Camera-sourced items are kept newest-first and
// bounded to the most recent entries; plain photo and screenshot uploads
// are appended unbounded.
//
// Because the bytes live on disk but the index does not survive a restart,
// List falls back to a storage directory scan for devices the process has
// never indexed, inferring each item's kind from the stored file name. A
// device whose gallery was explicitly cleared keeps an empty index entry,
// so the fallback cannot resurrect what the user deleted.
package gallery
