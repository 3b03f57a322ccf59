// Package telemetry stores per-device location and notification histories
// for Nestwatch Core.
//
// Both histories are append-only and size-bounded:
//
//   - Location fixes are kept oldest-first; when the bound is exceeded the
//     oldest fixes are dropped from the front (FIFO eviction).
//   - Notifications are kept newest-first; when the bound is exceeded the
//     tail (oldest entries) is truncated.
//
// Statistics are computed on demand by scanning the stored history; no
// incremental counters are maintained.
//
// The Store is safe for concurrent use. It never reaches into other
// components: the "last location" / "last notification" snapshots shown on
// a device are copies maintained by the device registry at report time.
package telemetry
