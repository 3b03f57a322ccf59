// Package changes records gallery change events reported by devices.
//
// Devices watch their local media store and report additions and deletions
// as they happen. The log keeps a bounded, per-device history in memory so
// a dashboard can show recent activity without polling full listings.
package changes
