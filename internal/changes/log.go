package changes

import (
	"sync"
	"time"
)

// DefaultCap bounds the number of events retained per device.
const DefaultCap = 50

// Action describes what happened to a media file on the device.
type Action string

const (
	ActionAdded   Action = "added"
	ActionDeleted Action = "deleted"
)

// Valid reports whether a is a recognised action.
func (a Action) Valid() bool {
	return a == ActionAdded || a == ActionDeleted
}

// Event is a single reported change.
type Event struct {
	Action     Action    `json:"action"`
	Path       string    `json:"path"`
	Kind       string    `json:"kind,omitempty"`
	ReportedAt time.Time `json:"reportedAt"`
}

// Log keeps bounded per-device change histories.
//
// All methods are safe for concurrent use.
type Log struct {
	mu     sync.RWMutex
	events map[string][]Event
	cap    int
}

// NewLog returns an empty change log. A cap below one falls back to the
// default bound.
func NewLog(cap int) *Log {
	if cap < 1 {
		cap = DefaultCap
	}
	return &Log{
		events: make(map[string][]Event),
		cap:    cap,
	}
}

// Record appends an event to the device's history, evicting the oldest
// entry once the bound is reached.
func (l *Log) Record(deviceID string, ev Event) {
	if ev.ReportedAt.IsZero() {
		ev.ReportedAt = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	events := append(l.events[deviceID], ev)
	if len(events) > l.cap {
		events = events[len(events)-l.cap:]
	}
	l.events[deviceID] = events
}

// List returns the device's events oldest-first. The result is a copy.
func (l *Log) List(deviceID string) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	events := l.events[deviceID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Clear drops a device's history and returns how many events were removed.
func (l *Log) Clear(deviceID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.events[deviceID])
	delete(l.events, deviceID)
	return n
}

// ClearAll drops every device's history and returns the total event count.
func (l *Log) ClearAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, events := range l.events {
		total += len(events)
	}
	l.events = make(map[string][]Event)
	return total
}

// Count returns the number of retained events for the device.
func (l *Log) Count(deviceID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events[deviceID])
}
