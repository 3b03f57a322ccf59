package telemetry

import (
	"sync"
	"time"
)

// Default history bounds, used when NewStore is given non-positive caps.
const (
	DefaultLocationCap     = 100
	DefaultNotificationCap = 200
)

// Store holds bounded per-device telemetry histories.
//
// All methods are safe for concurrent use. Entries are copied in and out,
// so callers can never mutate stored history through a returned slice.
type Store struct {
	mu            sync.RWMutex
	locations     map[string][]LocationFix
	notifications map[string][]Notification

	locationCap     int
	notificationCap int
}

// NewStore creates a telemetry store with the given per-device bounds.
// Non-positive caps fall back to the defaults (100 fixes, 200 notifications).
func NewStore(locationCap, notificationCap int) *Store {
	if locationCap < 1 {
		locationCap = DefaultLocationCap
	}
	if notificationCap < 1 {
		notificationCap = DefaultNotificationCap
	}
	return &Store{
		locations:       make(map[string][]LocationFix),
		notifications:   make(map[string][]Notification),
		locationCap:     locationCap,
		notificationCap: notificationCap,
	}
}

// AppendLocation appends a fix to the device's history, oldest first.
// When the bound is exceeded the oldest fixes are dropped from the front.
func (s *Store) AppendLocation(deviceID string, fix LocationFix) {
	s.mu.Lock()
	defer s.mu.Unlock()

	locs := append(s.locations[deviceID], fix)
	if len(locs) > s.locationCap {
		locs = locs[len(locs)-s.locationCap:]
	}
	s.locations[deviceID] = locs
}

// AppendNotification prepends a notification to the device's history
// (newest first). When the bound is exceeded the tail is truncated.
func (s *Store) AppendNotification(deviceID string, n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := s.notifications[deviceID]
	notes = append([]Notification{n}, notes...)
	if len(notes) > s.notificationCap {
		notes = notes[:s.notificationCap]
	}
	s.notifications[deviceID] = notes
}

// Locations returns the device's stored fixes, oldest first.
// A positive limit returns only the most recent fixes.
func (s *Store) Locations(deviceID string, limit int) []LocationFix {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locs := s.locations[deviceID]
	if limit > 0 && limit < len(locs) {
		locs = locs[len(locs)-limit:]
	}

	out := make([]LocationFix, len(locs))
	for i := range locs {
		out[i] = *locs[i].Clone()
	}
	return out
}

// Notifications returns the device's stored notifications, newest first.
// A positive limit truncates the result; a non-empty appFilter keeps only
// notifications whose package name or app label matches it.
func (s *Store) Notifications(deviceID string, limit int, appFilter string) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Notification
	for _, n := range s.notifications[deviceID] {
		if appFilter != "" && n.PackageName != appFilter && n.AppLabel != appFilter {
			continue
		}
		out = append(out, *n.Clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Stats computes notification statistics for a device by scanning its
// stored history.
func (s *Store) Stats(deviceID string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{ByApp: make(map[string]int)}
	today := time.Now().Truncate(24 * time.Hour)

	for _, n := range s.notifications[deviceID] {
		stats.Total++

		app := n.AppLabel
		if app == "" {
			app = n.PackageName
		}
		if app != "" {
			stats.ByApp[app]++
			if stats.ByApp[app] > stats.ByApp[stats.MostActiveApp] {
				stats.MostActiveApp = app
			}
		}

		if !n.CapturedAt.Before(today) {
			stats.TodayCount++
		}
	}

	return stats
}

// LastLocation returns a copy of the most recent fix, or nil if none.
func (s *Store) LastLocation(deviceID string) *LocationFix {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locs := s.locations[deviceID]
	if len(locs) == 0 {
		return nil
	}
	return locs[len(locs)-1].Clone()
}

// LocationCount returns the number of stored fixes for a device.
func (s *Store) LocationCount(deviceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.locations[deviceID])
}

// NotificationCount returns the number of stored notifications for a device.
func (s *Store) NotificationCount(deviceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifications[deviceID])
}

// RemoveDevice drops both histories for a device.
func (s *Store) RemoveDevice(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locations, deviceID)
	delete(s.notifications, deviceID)
}

// Clear drops all histories for all devices.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = make(map[string][]LocationFix)
	s.notifications = make(map[string][]Notification)
}
