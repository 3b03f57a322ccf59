package telemetry

import "time"

// LocationFix represents a single GPS report from a device.
//
// Latitude and longitude are required; the remaining readings are optional
// and nil when the device did not supply them. JSON field names follow the
// wire protocol spoken by the deployed child and parental apps.
type LocationFix struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Bearing   *float64 `json:"bearing,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`

	// CapturedAt is when the fix was taken on the device.
	CapturedAt time.Time `json:"capturedAt"`

	// Provider is the location source reported by the device (gps, network, fused).
	Provider string `json:"provider,omitempty"`

	// Kind tags why the update was sent (periodic, significant_change, manual).
	Kind string `json:"kind,omitempty"`
}

// Clone returns an independent copy of the fix, including optional readings.
func (f *LocationFix) Clone() *LocationFix {
	if f == nil {
		return nil
	}
	cpy := *f
	cpy.Accuracy = cloneFloat(f.Accuracy)
	cpy.Speed = cloneFloat(f.Speed)
	cpy.Bearing = cloneFloat(f.Bearing)
	cpy.Altitude = cloneFloat(f.Altitude)
	return &cpy
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	cpy := *v
	return &cpy
}

// Notification represents a single notification observed on a device.
type Notification struct {
	ID          string    `json:"id"`
	PackageName string    `json:"packageName,omitempty"`
	AppLabel    string    `json:"appName,omitempty"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	CapturedAt  time.Time `json:"capturedAt"`
	Category    string    `json:"category,omitempty"`
	Priority    int       `json:"priority,omitempty"`
}

// Clone returns an independent copy of the notification.
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	cpy := *n
	return &cpy
}

// Stats summarises a device's stored notification history.
// Computed on demand by Store.Stats.
type Stats struct {
	Total         int            `json:"total"`
	ByApp         map[string]int `json:"byApp"`
	TodayCount    int            `json:"todayCount"`
	MostActiveApp string         `json:"mostActiveApp,omitempty"`
}
