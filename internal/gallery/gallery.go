package gallery

import (
	"sync"

	"github.com/nestwatch/nestwatch-core/internal/storage"
)

// DefaultCameraCap bounds the number of camera-sourced items retained per
// device. Photo and screenshot uploads are not bounded.
const DefaultCameraCap = 50

// Scanner lists the stored files belonging to a device. It is satisfied by
// *storage.Store and exists so the fallback path can be faked in tests.
type Scanner interface {
	Scan(deviceID string) ([]storage.StoredFile, error)
}

// Gallery indexes uploaded media per device.
//
// All methods are safe for concurrent use. Returned slices are copies; the
// caller may retain or mutate them freely.
type Gallery struct {
	mu        sync.RWMutex
	items     map[string][]Item
	cameraCap int
	scanner   Scanner
}

// Option configures a Gallery.
type Option func(*Gallery)

// WithCameraCap overrides the per-device camera item bound. Values below
// one fall back to the default.
func WithCameraCap(n int) Option {
	return func(g *Gallery) {
		if n > 0 {
			g.cameraCap = n
		}
	}
}

// NewGallery returns an empty gallery backed by the given scanner. The
// scanner may be nil, in which case the disk fallback is disabled.
func NewGallery(scanner Scanner, opts ...Option) *Gallery {
	g := &Gallery{
		items:     make(map[string][]Item),
		cameraCap: DefaultCameraCap,
		scanner:   scanner,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Add records a newly uploaded item for the device.
//
// Camera items are prepended so the newest capture lists first, and the
// per-device camera history is trimmed to the configured bound. Other kinds
// append in upload order without a bound.
func (g *Gallery) Add(deviceID string, item Item) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if item.Kind.IsCamera() {
		g.items[deviceID] = append([]Item{item}, g.items[deviceID]...)
		g.trimCameraLocked(deviceID)
		return
	}
	g.items[deviceID] = append(g.items[deviceID], item)
}

// trimCameraLocked drops the oldest camera items beyond the cap while
// leaving non-camera items untouched. Caller holds the write lock.
func (g *Gallery) trimCameraLocked(deviceID string) {
	entries := g.items[deviceID]
	cameras := 0
	for _, it := range entries {
		if it.Kind.IsCamera() {
			cameras++
		}
	}
	if cameras <= g.cameraCap {
		return
	}

	// Camera items are prepended, so the oldest sit towards the tail.
	// Walk backwards removing camera entries until within bound.
	excess := cameras - g.cameraCap
	kept := make([]Item, 0, len(entries)-excess)
	for i := len(entries) - 1; i >= 0; i-- {
		it := entries[i]
		if excess > 0 && it.Kind.IsCamera() {
			excess--
			continue
		}
		kept = append(kept, it)
	}
	// kept was built in reverse order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	g.items[deviceID] = kept
}

// List returns the device's media, optionally filtered by kind. A zero
// Kind returns everything.
//
// For a device the gallery has never indexed, List scans the storage
// directory and reconstructs items from the stored file names. A device
// with an existing (possibly empty) index entry never triggers the scan,
// so an explicit Clear is final even while the bytes remain on disk.
func (g *Gallery) List(deviceID string, kind Kind) ([]Item, error) {
	g.mu.RLock()
	entries, indexed := g.items[deviceID]
	var out []Item
	if indexed {
		out = filterItems(entries, kind)
	}
	g.mu.RUnlock()

	if indexed {
		return out, nil
	}
	return g.listFromDisk(deviceID, kind)
}

// listFromDisk rebuilds a device's items from the storage directory and
// caches the result so subsequent calls serve from memory.
func (g *Gallery) listFromDisk(deviceID string, kind Kind) ([]Item, error) {
	if g.scanner == nil {
		return []Item{}, nil
	}
	files, err := g.scanner.Scan(deviceID)
	if err != nil {
		return nil, err
	}

	// Scan returns oldest first. Live adds prepend camera items and append
	// the rest, so the rebuilt slice mirrors that: cameras newest first,
	// then the others in upload order.
	var cameras, others []Item
	for _, f := range files {
		it := Item{
			StoredName:   f.Name,
			OriginalName: f.OriginalName,
			Size:         f.Size,
			UploadedAt:   f.ModTime,
			Kind:         inferKind(f.Name),
		}
		if it.Kind.IsCamera() {
			cameras = append(cameras, it)
		} else {
			others = append(others, it)
		}
	}
	rebuilt := make([]Item, 0, len(files))
	for i := len(cameras) - 1; i >= 0; i-- {
		rebuilt = append(rebuilt, cameras[i])
	}
	rebuilt = append(rebuilt, others...)

	g.mu.Lock()
	// Another request may have indexed the device while the scan ran;
	// the in-memory view wins in that case.
	if cached, ok := g.items[deviceID]; ok {
		out := filterItems(cached, kind)
		g.mu.Unlock()
		return out, nil
	}
	g.items[deviceID] = rebuilt
	g.trimCameraLocked(deviceID)
	rebuilt = g.items[deviceID]
	out := filterItems(rebuilt, kind)
	g.mu.Unlock()
	return out, nil
}

func filterItems(entries []Item, kind Kind) []Item {
	out := make([]Item, 0, len(entries))
	for _, it := range entries {
		if kind != "" && it.Kind != kind {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Clear empties a device's gallery index and returns how many items were
// dropped. The entry itself is kept (empty) so the disk fallback does not
// re-surface cleared media.
func (g *Gallery) Clear(deviceID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.items[deviceID])
	g.items[deviceID] = []Item{}
	return n
}

// Remove forgets a device entirely, including its tombstone. Used when the
// device itself is deleted and its files are removed from disk.
func (g *Gallery) Remove(deviceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.items, deviceID)
}

// ClearAll drops every device's gallery and returns the total item count.
func (g *Gallery) ClearAll() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	total := 0
	for _, entries := range g.items {
		total += len(entries)
	}
	g.items = make(map[string][]Item)
	return total
}

// Count returns the number of indexed items for the device.
func (g *Gallery) Count(deviceID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.items[deviceID])
}

// TotalCount returns the number of indexed items across all devices.
func (g *Gallery) TotalCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	total := 0
	for _, entries := range g.items {
		total += len(entries)
	}
	return total
}
