package capture

import (
	"errors"
	"strings"
	"testing"

	"github.com/nestwatch/nestwatch-core/internal/storage"
)

func TestCreate_GeneratesID(t *testing.T) {
	ledger := NewLedger()

	req, err := ledger.Create("D1", FacingFront, "parent-1", "")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if req.ID == "" {
		t.Fatal("generated request id is empty")
	}
	if !strings.HasPrefix(req.ID, "front-") {
		t.Errorf("generated id %q missing facing prefix", req.ID)
	}
	if req.Status != StatusPending {
		t.Errorf("Status = %q, want pending", req.Status)
	}
	if req.RequestedAt.IsZero() {
		t.Error("RequestedAt should be set")
	}
}

func TestCreate_CallerSuppliedID(t *testing.T) {
	ledger := NewLedger()

	req, err := ledger.Create("D1", FacingBack, "parent-1", "my-id-42")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if req.ID != "my-id-42" {
		t.Errorf("ID = %q, want caller-supplied my-id-42", req.ID)
	}
}

func TestCreate_DuplicateID(t *testing.T) {
	ledger := NewLedger()

	if _, err := ledger.Create("D1", FacingFront, "", "dup"); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	// Front and back share one id space
	if _, err := ledger.Create("D1", FacingBack, "", "dup"); !errors.Is(err, ErrRequestExists) {
		t.Errorf("Create(dup) error = %v, want ErrRequestExists", err)
	}
}

func TestListPending(t *testing.T) {
	ledger := NewLedger()

	first, _ := ledger.Create("D1", FacingFront, "", "")
	second, _ := ledger.Create("D1", FacingFront, "", "")
	if _, err := ledger.Create("D1", FacingBack, "", ""); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := ledger.Create("D2", FacingFront, "", ""); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	front := ledger.ListPending("D1", FacingFront)
	if len(front) != 2 {
		t.Fatalf("ListPending(D1, front) = %d requests, want 2", len(front))
	}
	// Oldest first
	if front[0].ID != first.ID || front[1].ID != second.ID {
		t.Errorf("pending order = [%s, %s], want creation order", front[0].ID, front[1].ID)
	}

	all := ledger.ListPending("D1", "")
	if len(all) != 3 {
		t.Errorf("ListPending(D1, any) = %d requests, want 3", len(all))
	}

	if got := ledger.ListPending("unknown", ""); len(got) != 0 {
		t.Errorf("ListPending(unknown) = %d requests, want 0", len(got))
	}
}

func TestFulfill(t *testing.T) {
	ledger := NewLedger()

	req, _ := ledger.Create("D1", FacingFront, "parent-1", "")
	file := storage.StoredFile{Name: "D1_front_camera_1_ab.jpg", Size: 123}

	done, err := ledger.Fulfill(req.ID, file)
	if err != nil {
		t.Fatalf("Fulfill() error: %v", err)
	}

	if done.Status != StatusCaptured {
		t.Errorf("Status = %q, want captured", done.Status)
	}
	if done.CapturedAt == nil {
		t.Error("CapturedAt should be set")
	}
	if done.Image == nil || done.Image.Name != file.Name {
		t.Errorf("Image = %+v, want stored file recorded", done.Image)
	}

	// Fulfilled requests leave the pending mailbox
	if pending := ledger.ListPending("D1", FacingFront); len(pending) != 0 {
		t.Errorf("pending after fulfil = %d, want 0", len(pending))
	}
}

func TestFulfill_UnknownID(t *testing.T) {
	ledger := NewLedger()

	_, err := ledger.Fulfill("nonexistent", storage.StoredFile{Name: "x.jpg"})
	if !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("Fulfill(nonexistent) error = %v, want ErrRequestNotFound", err)
	}
	if ledger.Count() != 0 {
		t.Error("failed fulfil must not create a request record")
	}
}

func TestFulfill_TerminalIsFinal(t *testing.T) {
	ledger := NewLedger()

	req, _ := ledger.Create("D1", FacingFront, "", "")
	if _, err := ledger.Fulfill(req.ID, storage.StoredFile{Name: "a.jpg"}); err != nil {
		t.Fatalf("Fulfill() error: %v", err)
	}

	if _, err := ledger.Fulfill(req.ID, storage.StoredFile{Name: "b.jpg"}); !errors.Is(err, ErrRequestTerminal) {
		t.Errorf("second Fulfill error = %v, want ErrRequestTerminal", err)
	}
	if _, err := ledger.Fail(req.ID, "late failure"); !errors.Is(err, ErrRequestTerminal) {
		t.Errorf("Fail after capture error = %v, want ErrRequestTerminal", err)
	}

	// The original outcome survives
	got, _ := ledger.Get(req.ID)
	if got.Status != StatusCaptured || got.Image.Name != "a.jpg" {
		t.Errorf("terminal request mutated: %+v", got)
	}
}

func TestFail(t *testing.T) {
	ledger := NewLedger()

	req, _ := ledger.Create("D1", FacingBack, "", "")
	failed, err := ledger.Fail(req.ID, "disk full")
	if err != nil {
		t.Fatalf("Fail() error: %v", err)
	}

	if failed.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", failed.Status)
	}
	if failed.FailureReason != "disk full" {
		t.Errorf("FailureReason = %q", failed.FailureReason)
	}

	// A later status poll observes the failure
	got, _ := ledger.Get(req.ID)
	if got.Status != StatusFailed {
		t.Errorf("polled status = %q, want failed", got.Status)
	}
}

func TestGet_UnknownID(t *testing.T) {
	ledger := NewLedger()

	if _, err := ledger.Get("nope"); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("Get(nope) error = %v, want ErrRequestNotFound", err)
	}
}

func TestPendingCount(t *testing.T) {
	ledger := NewLedger()

	a, _ := ledger.Create("D1", FacingFront, "", "")
	if _, err := ledger.Create("D1", FacingBack, "", ""); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := ledger.Fulfill(a.ID, storage.StoredFile{Name: "a.jpg"}); err != nil {
		t.Fatalf("Fulfill() error: %v", err)
	}

	if got := ledger.PendingCount("D1"); got != 1 {
		t.Errorf("PendingCount = %d, want 1", got)
	}
}

func TestRemoveDevice(t *testing.T) {
	ledger := NewLedger()

	if _, err := ledger.Create("D1", FacingFront, "", ""); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := ledger.Create("D1", FacingBack, "", ""); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := ledger.Create("D2", FacingFront, "", ""); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if removed := ledger.RemoveDevice("D1"); removed != 2 {
		t.Errorf("RemoveDevice(D1) = %d, want 2", removed)
	}
	if ledger.Count() != 1 {
		t.Errorf("Count() = %d, want 1", ledger.Count())
	}
}

func TestParseFacing(t *testing.T) {
	if _, err := ParseFacing("front"); err != nil {
		t.Errorf("ParseFacing(front) error: %v", err)
	}
	if _, err := ParseFacing("back"); err != nil {
		t.Errorf("ParseFacing(back) error: %v", err)
	}
	if _, err := ParseFacing("sideways"); !errors.Is(err, ErrInvalidFacing) {
		t.Errorf("ParseFacing(sideways) error = %v, want ErrInvalidFacing", err)
	}
}

func TestGenerateRequestID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := GenerateRequestID(FacingFront)
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate generated id %q", id)
		}
		seen[id] = struct{}{}
	}
}
