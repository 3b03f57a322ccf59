package changes

import (
	"fmt"
	"testing"
	"time"
)

func TestRecordAndList(t *testing.T) {
	l := NewLog(0)

	l.Record("dev1", Event{Action: ActionAdded, Path: "/dcim/a.jpg", Kind: "photo"})
	l.Record("dev1", Event{Action: ActionDeleted, Path: "/dcim/b.jpg"})
	l.Record("dev2", Event{Action: ActionAdded, Path: "/dcim/c.jpg"})

	events := l.List("dev1")
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Action != ActionAdded || events[0].Path != "/dcim/a.jpg" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Action != ActionDeleted {
		t.Errorf("unexpected second event: %+v", events[1])
	}
	if events[0].ReportedAt.IsZero() {
		t.Error("ReportedAt was not defaulted")
	}
	if got := l.Count("dev2"); got != 1 {
		t.Errorf("Count(dev2) = %d, want 1", got)
	}
}

func TestRecordKeepsExplicitTimestamp(t *testing.T) {
	l := NewLog(0)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l.Record("dev1", Event{Action: ActionAdded, Path: "x", ReportedAt: at})

	events := l.List("dev1")
	if !events[0].ReportedAt.Equal(at) {
		t.Errorf("ReportedAt = %v, want %v", events[0].ReportedAt, at)
	}
}

func TestBoundEvictsOldest(t *testing.T) {
	l := NewLog(3)

	for i := 0; i < 5; i++ {
		l.Record("dev1", Event{Action: ActionAdded, Path: fmt.Sprintf("f%d", i)})
	}

	events := l.List("dev1")
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Path != "f2" || events[2].Path != "f4" {
		t.Errorf("unexpected retained window: %s .. %s", events[0].Path, events[2].Path)
	}
}

func TestClear(t *testing.T) {
	l := NewLog(0)
	l.Record("dev1", Event{Action: ActionAdded, Path: "a"})
	l.Record("dev1", Event{Action: ActionAdded, Path: "b"})
	l.Record("dev2", Event{Action: ActionAdded, Path: "c"})

	if n := l.Clear("dev1"); n != 2 {
		t.Errorf("Clear(dev1) = %d, want 2", n)
	}
	if len(l.List("dev1")) != 0 {
		t.Error("dev1 history survived Clear")
	}
	if n := l.Clear("missing"); n != 0 {
		t.Errorf("Clear(missing) = %d, want 0", n)
	}
	if n := l.ClearAll(); n != 1 {
		t.Errorf("ClearAll = %d, want 1", n)
	}
}

func TestListReturnsCopy(t *testing.T) {
	l := NewLog(0)
	l.Record("dev1", Event{Action: ActionAdded, Path: "a"})

	events := l.List("dev1")
	events[0].Path = "mutated"

	if l.List("dev1")[0].Path != "a" {
		t.Error("List leaked internal slice")
	}
}

func TestActionValid(t *testing.T) {
	if !ActionAdded.Valid() || !ActionDeleted.Valid() {
		t.Error("known actions reported invalid")
	}
	if Action("moved").Valid() {
		t.Error("unknown action reported valid")
	}
}
