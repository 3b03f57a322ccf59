package device

import (
	"sort"
	"sync"
	"time"

	"github.com/nestwatch/nestwatch-core/internal/telemetry"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the in-memory device table.
//
// All public methods are thread-safe. Devices are cloned on the way in and
// out, so the internal map is never aliased by callers.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
	logger  Logger
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]*Device),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Upsert registers a device or refreshes an existing one, keyed on the
// caller-supplied id.
//
// If the id is known, the non-nil fields are merged into the existing
// record and LastSeen/Status are refreshed; fields the report did not carry
// keep their previous values. If the id is unknown, a new record is created
// with defaults for anything not supplied.
//
// Parameters:
//   - id: Caller-supplied device identifier (required)
//   - fields: Optional fields carried by the report
//
// Returns:
//   - *Device: A copy of the resulting record
//   - error: ErrMissingID when id is empty
func (r *Registry) Upsert(id string, fields UpsertFields) (*Device, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[id]
	if !ok {
		dev = &Device{
			ID:           id,
			Name:         DefaultName,
			RegisteredAt: now,
		}
		r.devices[id] = dev
		r.logger.Info("device registered", "id", id)
	}

	if fields.Name != nil && *fields.Name != "" {
		dev.Name = *fields.Name
	}
	if fields.Battery != nil {
		battery := *fields.Battery
		dev.Battery = &battery
	}
	dev.Status = StatusOnline
	dev.LastSeen = now

	return dev.Clone(), nil
}

// Get retrieves a device by id.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a copy; callers can safely modify it.
func (r *Registry) Get(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dev, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return dev.Clone(), nil
}

// SetLastLocation refreshes a device's location snapshot and marks it online.
// The fix is cloned; the registry never shares memory with the telemetry store.
func (r *Registry) SetLastLocation(id string, fix *telemetry.LocationFix) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}

	dev.LastLocation = fix.Clone()
	dev.Status = StatusOnline
	dev.LastSeen = time.Now().UTC()
	return nil
}

// SetLastNotification refreshes a device's notification snapshot and marks
// it online.
func (r *Registry) SetLastNotification(id string, n *telemetry.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}

	dev.LastNotification = n.Clone()
	dev.Status = StatusOnline
	dev.LastSeen = time.Now().UTC()
	return nil
}

// Remove deletes a device from the registry.
// Returns true if a record existed. Removal of the device's entries in the
// other stores is the caller's responsibility; the registry only owns this
// table.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.devices[id]
	if ok {
		delete(r.devices, id)
		r.logger.Info("device removed", "id", id)
	}
	return ok
}

// List returns copies of all registered devices, ordered by registration
// time (ties broken by id) for stable listings.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, *d.Clone())
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].RegisteredAt.Equal(devices[j].RegisteredAt) {
			return devices[i].ID < devices[j].ID
		}
		return devices[i].RegisteredAt.Before(devices[j].RegisteredAt)
	})

	return devices
}

// Clear empties the registry and returns the number of devices removed.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.devices)
	r.devices = make(map[string]*Device)
	if removed > 0 {
		r.logger.Info("registry cleared", "removed", removed)
	}
	return removed
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
