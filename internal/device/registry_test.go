package device

import (
	"errors"
	"testing"

	"github.com/nestwatch/nestwatch-core/internal/telemetry"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestUpsert_CreatesWithDefaults(t *testing.T) {
	registry := NewRegistry()

	dev, err := registry.Upsert("D1", UpsertFields{})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	if dev.ID != "D1" {
		t.Errorf("ID = %q, want D1", dev.ID)
	}
	if dev.Name != DefaultName {
		t.Errorf("Name = %q, want default %q", dev.Name, DefaultName)
	}
	if dev.Status != StatusOnline {
		t.Errorf("Status = %q, want online", dev.Status)
	}
	if dev.Battery != nil {
		t.Errorf("Battery = %v, want nil (never reported)", *dev.Battery)
	}
	if dev.RegisteredAt.IsZero() || dev.LastSeen.IsZero() {
		t.Error("timestamps should be set on creation")
	}
}

func TestUpsert_RequiresID(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Upsert("", UpsertFields{Name: strPtr("phone")})
	if !errors.Is(err, ErrMissingID) {
		t.Errorf("Upsert(\"\") error = %v, want ErrMissingID", err)
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	registry := NewRegistry()

	first, err := registry.Upsert("D1", UpsertFields{Name: strPtr("Maya's phone"), Battery: intPtr(80)})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	// Second registration with no fields must not duplicate or reset anything
	second, err := registry.Upsert("D1", UpsertFields{})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	if registry.Count() != 1 {
		t.Fatalf("Count() = %d after re-registration, want 1", registry.Count())
	}
	if second.Name != "Maya's phone" {
		t.Errorf("Name = %q, previously-set name must survive", second.Name)
	}
	if second.Battery == nil || *second.Battery != 80 {
		t.Errorf("Battery = %v, previously-set battery must survive", second.Battery)
	}
	if !second.RegisteredAt.Equal(first.RegisteredAt) {
		t.Error("RegisteredAt must not change on re-registration")
	}
	if second.LastSeen.Before(first.LastSeen) {
		t.Error("LastSeen must be refreshed on re-registration")
	}
}

func TestUpsert_MergesSuppliedFields(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Upsert("D1", UpsertFields{Name: strPtr("old name")}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	dev, err := registry.Upsert("D1", UpsertFields{Battery: intPtr(42)})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	if dev.Name != "old name" {
		t.Errorf("Name = %q, unsupplied field must keep its value", dev.Name)
	}
	if dev.Battery == nil || *dev.Battery != 42 {
		t.Errorf("Battery = %v, want 42", dev.Battery)
	}
}

func TestUpsert_EmptyNameIgnored(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Upsert("D1", UpsertFields{Name: strPtr("real name")}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	dev, err := registry.Upsert("D1", UpsertFields{Name: strPtr("")})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if dev.Name != "real name" {
		t.Errorf("Name = %q, empty name must not overwrite", dev.Name)
	}
}

func TestGet(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Get("missing"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrDeviceNotFound", err)
	}

	if _, err := registry.Upsert("D1", UpsertFields{}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	dev, err := registry.Get("D1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if dev.ID != "D1" {
		t.Errorf("ID = %q, want D1", dev.ID)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Upsert("D1", UpsertFields{Name: strPtr("original")}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	dev, _ := registry.Get("D1")
	dev.Name = "mutated"

	again, _ := registry.Get("D1")
	if again.Name != "original" {
		t.Error("mutating a returned device must not affect the registry")
	}
}

func TestSetLastLocation(t *testing.T) {
	registry := NewRegistry()

	fix := &telemetry.LocationFix{Latitude: 28.6, Longitude: 77.2}
	if err := registry.SetLastLocation("missing", fix); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("SetLastLocation(missing) error = %v, want ErrDeviceNotFound", err)
	}

	if _, err := registry.Upsert("D1", UpsertFields{}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if err := registry.SetLastLocation("D1", fix); err != nil {
		t.Fatalf("SetLastLocation() error: %v", err)
	}

	dev, _ := registry.Get("D1")
	if dev.LastLocation == nil || dev.LastLocation.Latitude != 28.6 {
		t.Errorf("LastLocation = %+v, want latitude 28.6", dev.LastLocation)
	}

	// Snapshot must be a copy, not a reference
	fix.Latitude = 0
	dev, _ = registry.Get("D1")
	if dev.LastLocation.Latitude != 28.6 {
		t.Error("LastLocation must be a snapshot, not a shared reference")
	}
}

func TestSetLastNotification(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Upsert("D1", UpsertFields{}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	note := &telemetry.Notification{ID: "n1", Title: "hello"}
	if err := registry.SetLastNotification("D1", note); err != nil {
		t.Fatalf("SetLastNotification() error: %v", err)
	}

	dev, _ := registry.Get("D1")
	if dev.LastNotification == nil || dev.LastNotification.ID != "n1" {
		t.Errorf("LastNotification = %+v, want id n1", dev.LastNotification)
	}
}

func TestRemove(t *testing.T) {
	registry := NewRegistry()

	if registry.Remove("missing") {
		t.Error("Remove(missing) = true, want false")
	}

	if _, err := registry.Upsert("D1", UpsertFields{}); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if !registry.Remove("D1") {
		t.Error("Remove(D1) = false, want true")
	}
	if registry.Count() != 0 {
		t.Errorf("Count() = %d after removal, want 0", registry.Count())
	}
}

func TestList_SortedByRegistration(t *testing.T) {
	registry := NewRegistry()

	for _, id := range []string{"C", "A", "B"} {
		if _, err := registry.Upsert(id, UpsertFields{}); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}
	}

	devices := registry.List()
	if len(devices) != 3 {
		t.Fatalf("List() returned %d devices, want 3", len(devices))
	}

	// Registration times may collide within the loop; ordering must still
	// be deterministic via the id tie-break.
	for i := 1; i < len(devices); i++ {
		prev, cur := devices[i-1], devices[i]
		if cur.RegisteredAt.Before(prev.RegisteredAt) {
			t.Error("List() not ordered by registration time")
		}
		if cur.RegisteredAt.Equal(prev.RegisteredAt) && cur.ID < prev.ID {
			t.Error("List() tie-break by id not applied")
		}
	}
}

func TestClear(t *testing.T) {
	registry := NewRegistry()

	for _, id := range []string{"A", "B"} {
		if _, err := registry.Upsert(id, UpsertFields{}); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}
	}

	if removed := registry.Clear(); removed != 2 {
		t.Errorf("Clear() = %d, want 2", removed)
	}
	if registry.Count() != 0 {
		t.Errorf("Count() = %d after Clear, want 0", registry.Count())
	}
}
