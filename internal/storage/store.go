package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nestwatch/nestwatch-core/internal/infrastructure/config"
)

// StoredFile describes a file held by the store. It is the descriptor the
// rest of the system passes around; handlers never touch paths directly.
type StoredFile struct {
	// Name is the stored (server-side) file name, unique within the store.
	Name string `json:"storedName"`

	// OriginalName is the sanitised client-supplied name.
	OriginalName string `json:"originalName"`

	// Size is the file size in bytes.
	Size int64 `json:"sizeBytes"`

	// Path is the absolute location on disk. Not serialised.
	Path string `json:"-"`

	// ModTime is the file modification time. Only populated by Scan,
	// where it stands in for the lost upload timestamp.
	ModTime time.Time `json:"-"`
}

// Store writes and retrieves uploaded media files under a single directory.
//
// All methods are safe for concurrent use; the store itself is stateless
// and relies on the filesystem for coordination. Stored names embed a
// random component, so concurrent saves never collide.
type Store struct {
	dir      string
	maxBytes int64
	allowed  map[string]struct{}
}

// unsafeChars matches everything that must not appear in a stored file name
// component (path separators, traversal dots, control characters).
// Underscore is excluded because it separates the name's fields: a device id
// containing one could alias another device's name prefix.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]+`)

// New creates a Store rooted at cfg.Path, creating the directory if needed.
func New(cfg config.StorageConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	return &Store{
		dir:      cfg.Path,
		maxBytes: int64(cfg.MaxUploadMB) << 20,
		allowed:  allowed,
	}, nil
}

// Dir returns the storage directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the upload to disk under a unique name derived from the
// device id, the media kind, the current time, and a random suffix.
//
// The write is bounded: reads stop one byte past the configured limit and
// the partial file is removed on ErrFileTooLarge, so an oversized upload
// never leaves bytes behind.
//
// Parameters:
//   - deviceID: Owning device (prefix for later Scan reconstruction)
//   - kind: Media kind tag embedded in the name (photo, screenshot, ...)
//   - originalName: Client-supplied file name (sanitised, extension checked)
//   - r: Upload content
//
// Returns:
//   - StoredFile: Descriptor of the stored file
//   - error: ErrUnsupportedType, ErrFileTooLarge, or an I/O error
func (s *Store) Save(deviceID, kind, originalName string, r io.Reader) (StoredFile, error) {
	original := sanitizeComponent(filepath.Base(originalName))

	ext := strings.ToLower(filepath.Ext(original))
	if _, ok := s.allowed[ext]; !ok {
		return StoredFile{}, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	name := fmt.Sprintf("%s_%s_%d_%s%s",
		sanitizeComponent(deviceID),
		kind,
		time.Now().UnixMilli(),
		randomSuffix(),
		ext,
	)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("creating upload file: %w", err)
	}

	// Read one byte past the limit so an at-limit file is distinguishable
	// from an oversized one.
	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()

	if err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return StoredFile{}, fmt.Errorf("writing upload file: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(path)
		return StoredFile{}, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, s.maxBytes)
	}

	return StoredFile{
		Name:         name,
		OriginalName: original,
		Size:         written,
		Path:         path,
	}, nil
}

// Open returns the stored file for serving. The caller must close it.
// Names containing path separators or traversal sequences are rejected.
func (s *Store) Open(name string) (*os.File, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("opening stored file: %w", err)
	}
	return f, nil
}

// Scan lists the stored files belonging to a device, oldest first.
// Used to rebuild a gallery index after restart.
func (s *Store) Scan(deviceID string) ([]StoredFile, error) {
	prefix := sanitizeComponent(deviceID) + "_"

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scanning storage directory: %w", err)
	}

	var files []StoredFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, StoredFile{
			Name:         entry.Name(),
			OriginalName: entry.Name(),
			Size:         info.Size(),
			Path:         filepath.Join(s.dir, entry.Name()),
			ModTime:      info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})

	return files, nil
}

// RemoveDevice deletes all stored files belonging to a device.
// Returns the number of files removed. Used by the device-deletion cascade.
func (s *Store) RemoveDevice(deviceID string) (int, error) {
	files, err := s.Scan(deviceID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if err := os.Remove(f.Path); err == nil {
			removed++
		}
	}
	return removed, nil
}

// sanitizeComponent strips anything from a name component that could escape
// the storage directory or break the <device>_<kind>_<time>_<rand> layout.
// The result never contains an underscore, so a device's name prefix ends at
// the first separator and Scan cannot match across device boundaries.
func sanitizeComponent(name string) string {
	cleaned := unsafeChars.ReplaceAllString(name, "-")
	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		cleaned = "file"
	}
	return cleaned
}

// randomSuffix returns a short random token for stored-name uniqueness.
func randomSuffix() string {
	return uuid.NewString()[:8]
}
