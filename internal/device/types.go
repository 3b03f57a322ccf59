package device

import (
	"time"

	"github.com/nestwatch/nestwatch-core/internal/telemetry"
)

// DefaultName is used for devices that register without a display name.
const DefaultName = "Unknown device"

// Status represents a device's connectivity state.
//
// Online is the only state the relay ever sets: a device is marked online
// whenever it reports, and there is no offline-timeout sweep. LastSeen is
// what a parental client should read to judge staleness.
type Status string

// Status constants.
const (
	StatusOnline Status = "online"
)

// Device represents a registered child device.
//
// LastLocation and LastNotification are snapshots copied from the latest
// telemetry report, not references into the telemetry store. They exist for
// fast summary display and are allowed to lag the full history.
type Device struct {
	// ID is the caller-supplied unique identifier.
	ID string `json:"deviceId"`

	// Name is the display name, defaulting to DefaultName.
	Name string `json:"deviceName"`

	// Battery is the last reported battery percentage, nil if never reported.
	Battery *int `json:"batteryLevel,omitempty"`

	// Status is the connectivity state (always online once registered).
	Status Status `json:"status"`

	// RegisteredAt is when the device first appeared.
	RegisteredAt time.Time `json:"registeredAt"`

	// LastSeen is refreshed on every report from the device.
	LastSeen time.Time `json:"lastSeenAt"`

	// LastLocation is the most recent location fix, if any.
	LastLocation *telemetry.LocationFix `json:"lastLocation,omitempty"`

	// LastNotification is the most recent notification, if any.
	LastNotification *telemetry.Notification `json:"lastNotification,omitempty"`
}

// Clone creates a complete independent copy of the Device.
// The telemetry snapshots are cloned so modifications to the copy do not
// affect the original. This is essential for registry isolation.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.Battery != nil {
		battery := *d.Battery
		cpy.Battery = &battery
	}
	cpy.LastLocation = d.LastLocation.Clone()
	cpy.LastNotification = d.LastNotification.Clone()

	return &cpy
}

// UpsertFields carries the optional fields a registration or telemetry
// report may set on a device. Nil fields are left untouched on an existing
// record; this is what makes re-registration lossless.
type UpsertFields struct {
	// Name sets the display name when non-nil and non-empty.
	Name *string

	// Battery sets the battery percentage when non-nil.
	Battery *int
}
