// Package device provides the Device Registry for Nestwatch Core.
//
// The registry is the authoritative in-memory table of child devices known
// to the relay. Devices are identified by a caller-supplied id; the server
// never generates device identity. Registration and telemetry reports both
// go through Upsert, which is keyed on that id: a device re-registering
// after a reconnect mutates its existing record in place and never creates
// a duplicate or resets fields it did not send.
//
// # Key Types
//
//   - Device: A registered child device with its latest-known state
//   - UpsertFields: The optional fields a report may carry
//
// # Usage
//
//	registry := device.NewRegistry()
//	registry.SetLogger(log)
//
//	name := "Maya's phone"
//	dev, err := registry.Upsert("a3f1...", device.UpsertFields{Name: &name})
//
// # Thread Safety
//
// The Registry is safe for concurrent use. All operations are protected by
// a read-write mutex and devices are copied in and out, so callers can
// never mutate registry state through a returned Device.
package device
