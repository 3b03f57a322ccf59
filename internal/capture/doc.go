// Package capture implements the camera capture request ledger for
// Nestwatch Core.
//
// The ledger is the server half of a two-phase, poll-based request/response
// protocol. The parental client asks for a photo; the child device has no
// push channel, so the server acts as a mailbox:
//
//  1. Create — the parental client creates a pending request for a device
//     and a camera facing.
//  2. ListPending — the child client polls periodically and picks up any
//     pending requests addressed to it.
//  3. Fulfill / Fail — the child uploads the captured image (or the upload
//     fails) and the request transitions to its terminal state.
//  4. Get — either side reads the current status at any time.
//
// State machine:
//
//	pending ──> captured   (upload stored)
//	pending ──> failed     (processing error)
//
// Terminal states are final. There is no retry under the same request id; a
// new ask needs a new id. Pending requests never expire: the protocol
// tolerates the ask and the answer being arbitrarily far apart, which is
// exactly the situation with an intermittently connected child device.
//
// Front and back cameras share one request-id space. The Ledger is safe for
// concurrent use.
package capture
