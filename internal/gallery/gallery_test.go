package gallery

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nestwatch/nestwatch-core/internal/storage"
)

type fakeScanner struct {
	files map[string][]storage.StoredFile
	err   error
	calls int
}

func (f *fakeScanner) Scan(deviceID string) ([]storage.StoredFile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.files[deviceID], nil
}

func TestAddAndListByKind(t *testing.T) {
	g := NewGallery(nil)

	g.Add("dev1", Item{StoredName: "a.jpg", Kind: KindPhoto})
	g.Add("dev1", Item{StoredName: "b.png", Kind: KindScreenshot})
	g.Add("dev1", Item{StoredName: "c.jpg", Kind: KindFrontCamera})

	all, err := g.List("dev1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 items, got %d", len(all))
	}
	// Camera item was prepended.
	if all[0].Kind != KindFrontCamera {
		t.Errorf("expected camera item first, got %s", all[0].Kind)
	}

	shots, err := g.List("dev1", KindScreenshot)
	if err != nil {
		t.Fatalf("List screenshots: %v", err)
	}
	if len(shots) != 1 || shots[0].StoredName != "b.png" {
		t.Errorf("unexpected screenshot listing: %+v", shots)
	}
}

func TestCameraCapEvictsOldest(t *testing.T) {
	g := NewGallery(nil, WithCameraCap(3))

	g.Add("dev1", Item{StoredName: "keep.jpg", Kind: KindPhoto})
	for i := 0; i < 5; i++ {
		g.Add("dev1", Item{StoredName: fmt.Sprintf("cam%d.jpg", i), Kind: KindBackCamera})
	}

	items, err := g.List("dev1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// 3 cameras retained plus the unbounded photo.
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}
	if items[0].StoredName != "cam4.jpg" {
		t.Errorf("expected newest camera first, got %s", items[0].StoredName)
	}
	for _, it := range items {
		if it.StoredName == "cam0.jpg" || it.StoredName == "cam1.jpg" {
			t.Errorf("oldest camera item %s should have been evicted", it.StoredName)
		}
		if it.StoredName == "keep.jpg" && it.Kind != KindPhoto {
			t.Errorf("photo item mutated: %+v", it)
		}
	}
}

func TestListFallsBackToDiskScan(t *testing.T) {
	now := time.Now()
	sc := &fakeScanner{files: map[string][]storage.StoredFile{
		"dev1": {
			{Name: "dev1_photo_1_abc.jpg", Size: 10, ModTime: now},
			{Name: "dev1_front_camera_2_def.jpg", Size: 20, ModTime: now},
			{Name: "dev1_screenshot_3_ghi.png", Size: 30, ModTime: now},
		},
	}}
	g := NewGallery(sc)

	items, err := g.List("dev1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 reconstructed items, got %d", len(items))
	}

	kinds := map[string]Kind{}
	for _, it := range items {
		kinds[it.StoredName] = it.Kind
	}
	if kinds["dev1_photo_1_abc.jpg"] != KindPhoto {
		t.Errorf("photo inference failed: %s", kinds["dev1_photo_1_abc.jpg"])
	}
	if kinds["dev1_front_camera_2_def.jpg"] != KindFrontCamera {
		t.Errorf("front camera inference failed")
	}
	if kinds["dev1_screenshot_3_ghi.png"] != KindScreenshot {
		t.Errorf("screenshot inference failed")
	}

	// Scan result is cached; a second List must not hit the disk again.
	if _, err := g.List("dev1", ""); err != nil {
		t.Fatalf("second List: %v", err)
	}
	if sc.calls != 1 {
		t.Errorf("expected 1 scan, got %d", sc.calls)
	}
}

func TestListFallbackOrdersCamerasNewestFirst(t *testing.T) {
	base := time.Now()
	sc := &fakeScanner{files: map[string][]storage.StoredFile{
		"dev1": {
			{Name: "dev1_front_camera_1_aaa.jpg", ModTime: base},
			{Name: "dev1_photo_2_bbb.jpg", ModTime: base.Add(time.Second)},
			{Name: "dev1_front_camera_3_ccc.jpg", ModTime: base.Add(2 * time.Second)},
		},
	}}
	g := NewGallery(sc)

	items, err := g.List("dev1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	// Same shape as a live session: newest capture first, then older
	// captures, then the unbounded kinds in upload order.
	want := []string{
		"dev1_front_camera_3_ccc.jpg",
		"dev1_front_camera_1_aaa.jpg",
		"dev1_photo_2_bbb.jpg",
	}
	for i, name := range want {
		if items[i].StoredName != name {
			t.Errorf("items[%d] = %s, want %s", i, items[i].StoredName, name)
		}
	}
}

func TestListFallbackAppliesCameraCap(t *testing.T) {
	base := time.Now()
	files := make([]storage.StoredFile, 0, 5)
	for i := 0; i < 5; i++ {
		files = append(files, storage.StoredFile{
			Name:    fmt.Sprintf("dev1_back_camera_%d_x.jpg", i),
			ModTime: base.Add(time.Duration(i) * time.Second),
		})
	}
	g := NewGallery(&fakeScanner{files: map[string][]storage.StoredFile{"dev1": files}}, WithCameraCap(3))

	items, err := g.List("dev1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items after cap, got %d", len(items))
	}
	if items[0].StoredName != "dev1_back_camera_4_x.jpg" {
		t.Errorf("expected newest capture first, got %s", items[0].StoredName)
	}
}

func TestClearSuppressesDiskFallback(t *testing.T) {
	sc := &fakeScanner{files: map[string][]storage.StoredFile{
		"dev1": {{Name: "dev1_photo_1_abc.jpg"}},
	}}
	g := NewGallery(sc)

	g.Add("dev1", Item{StoredName: "x.jpg", Kind: KindPhoto})
	if n := g.Clear("dev1"); n != 1 {
		t.Fatalf("Clear returned %d, want 1", n)
	}

	items, err := g.List("dev1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("cleared gallery resurrected %d items from disk", len(items))
	}
	if sc.calls != 0 {
		t.Errorf("disk scan ran despite tombstone")
	}
}

func TestClearOnUnknownDeviceTombstones(t *testing.T) {
	sc := &fakeScanner{files: map[string][]storage.StoredFile{
		"dev1": {{Name: "dev1_photo_1_abc.jpg"}},
	}}
	g := NewGallery(sc)

	if n := g.Clear("dev1"); n != 0 {
		t.Fatalf("Clear returned %d, want 0", n)
	}
	items, err := g.List("dev1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty listing after clear, got %d items", len(items))
	}
}

func TestRemoveForgetsTombstone(t *testing.T) {
	sc := &fakeScanner{files: map[string][]storage.StoredFile{}}
	g := NewGallery(sc)

	g.Add("dev1", Item{StoredName: "x.jpg", Kind: KindPhoto})
	g.Remove("dev1")

	// With the entry gone the fallback path runs again (and finds nothing).
	items, err := g.List("dev1", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
	if sc.calls != 1 {
		t.Errorf("expected fallback scan after Remove, got %d calls", sc.calls)
	}
}

func TestListScanError(t *testing.T) {
	sentinel := errors.New("disk gone")
	g := NewGallery(&fakeScanner{err: sentinel})

	if _, err := g.List("dev1", ""); !errors.Is(err, sentinel) {
		t.Errorf("expected scan error, got %v", err)
	}
}

func TestClearAllAndCounts(t *testing.T) {
	g := NewGallery(nil)
	g.Add("dev1", Item{StoredName: "a.jpg", Kind: KindPhoto})
	g.Add("dev1", Item{StoredName: "b.jpg", Kind: KindPhoto})
	g.Add("dev2", Item{StoredName: "c.jpg", Kind: KindScreenshot})

	if got := g.Count("dev1"); got != 2 {
		t.Errorf("Count(dev1) = %d, want 2", got)
	}
	if got := g.TotalCount(); got != 3 {
		t.Errorf("TotalCount = %d, want 3", got)
	}
	if got := g.ClearAll(); got != 3 {
		t.Errorf("ClearAll = %d, want 3", got)
	}
	if got := g.TotalCount(); got != 0 {
		t.Errorf("TotalCount after ClearAll = %d, want 0", got)
	}
}
