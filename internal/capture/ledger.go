package capture

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nestwatch/nestwatch-core/internal/storage"
)

// Ledger tracks camera capture requests and correlates uploads back to the
// ask that caused them.
//
// All methods are thread-safe. Requests are cloned on the way in and out.
type Ledger struct {
	mu       sync.RWMutex
	requests map[string]*Request
	nextSeq  uint64
}

// NewLedger creates an empty capture request ledger.
func NewLedger() *Ledger {
	return &Ledger{
		requests: make(map[string]*Request),
	}
}

// Create inserts a new pending request.
//
// The caller may supply its own request id (so the parental client can
// correlate without a round trip); an empty id gets a generated one. The
// target device's existence is the caller's concern — the ledger only owns
// the request table.
//
// Parameters:
//   - deviceID: Target child device
//   - facing: Camera facing (front or back)
//   - requesterID: Originating parental client, informational
//   - requestID: Caller-supplied id, or "" to generate one
//
// Returns:
//   - *Request: A copy of the created pending request
//   - error: ErrRequestExists when the id is already in the ledger
func (l *Ledger) Create(deviceID string, facing Facing, requesterID, requestID string) (*Request, error) {
	if requestID == "" {
		requestID = GenerateRequestID(facing)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.requests[requestID]; exists {
		return nil, fmt.Errorf("%w: %q", ErrRequestExists, requestID)
	}

	l.nextSeq++
	req := &Request{
		ID:          requestID,
		DeviceID:    deviceID,
		RequesterID: requesterID,
		Facing:      facing,
		Status:      StatusPending,
		RequestedAt: time.Now().UTC(),
		seq:         l.nextSeq,
	}
	l.requests[requestID] = req

	return req.Clone(), nil
}

// Get returns a copy of the request with the given id.
func (l *Ledger) Get(requestID string) (*Request, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	req, ok := l.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRequestNotFound, requestID)
	}
	return req.Clone(), nil
}

// ListPending returns the device's pending requests, oldest first. This is
// the child client's poll mailbox. An empty facing matches both cameras.
func (l *Ledger) ListPending(deviceID string, facing Facing) []Request {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var pending []Request
	for _, req := range l.requests {
		if req.DeviceID != deviceID || req.Status != StatusPending {
			continue
		}
		if facing != "" && req.Facing != facing {
			continue
		}
		pending = append(pending, *req.Clone())
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].seq < pending[j].seq
	})

	if pending == nil {
		pending = []Request{}
	}
	return pending
}

// Fulfill transitions a pending request to captured, recording the stored
// file. The caller is responsible for having completed the file write
// before calling; a request never points at bytes that are not on disk.
//
// Returns ErrRequestNotFound for an unknown id and ErrRequestTerminal when
// the request has already completed.
func (l *Ledger) Fulfill(requestID string, file storage.StoredFile) (*Request, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	req, ok := l.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRequestNotFound, requestID)
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: %q is %s", ErrRequestTerminal, requestID, req.Status)
	}

	now := time.Now().UTC()
	req.Status = StatusCaptured
	req.CapturedAt = &now
	req.Image = &file

	return req.Clone(), nil
}

// Fail transitions a pending request to failed with the given reason.
//
// Handlers call this on any processing error during fulfilment, before
// reporting the error to the uploader, so that the parental client's next
// status poll observes failed instead of a stuck pending.
func (l *Ledger) Fail(requestID, reason string) (*Request, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	req, ok := l.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRequestNotFound, requestID)
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: %q is %s", ErrRequestTerminal, requestID, req.Status)
	}

	req.Status = StatusFailed
	req.FailureReason = reason

	return req.Clone(), nil
}

// PendingCount returns the number of pending requests for a device.
func (l *Ledger) PendingCount(deviceID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, req := range l.requests {
		if req.DeviceID == deviceID && req.Status == StatusPending {
			count++
		}
	}
	return count
}

// RemoveDevice drops all requests targeting a device, in any state.
// Returns the number removed. Used by the device-deletion cascade.
func (l *Ledger) RemoveDevice(deviceID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, req := range l.requests {
		if req.DeviceID == deviceID {
			delete(l.requests, id)
			removed++
		}
	}
	return removed
}

// Clear empties the ledger and returns the number of requests removed.
func (l *Ledger) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := len(l.requests)
	l.requests = make(map[string]*Request)
	return removed
}

// Count returns the total number of requests in the ledger, any state.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.requests)
}

// GenerateRequestID builds a facing-prefixed id with a timestamp and a
// random suffix. Uniqueness is practical, not absolute; Create still
// guards the id space with ErrRequestExists.
func GenerateRequestID(facing Facing) string {
	return fmt.Sprintf("%s-%d-%s", facing, time.Now().UnixMilli(), uuid.NewString()[:8])
}
