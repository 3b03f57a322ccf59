// Package api provides the HTTP and WebSocket server for Nestwatch Core.
//
// It exposes the fixed relay protocol spoken by the child and parental
// apps: device registration, telemetry reporting, the camera capture
// correlation protocol, media upload and listing, and the gallery change
// log. A WebSocket event feed lets parental dashboards observe activity
// without polling, but never carries commands; pending capture work is
// still pulled over HTTP.
//
// The server follows the lifecycle pattern used across the codebase:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
