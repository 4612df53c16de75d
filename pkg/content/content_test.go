package content

import (
	"context"
	"testing"

	"github.com/magpress/magpress/pkg/layout"
)

func testLayout(t *testing.T) *layout.Layout {
	t.Helper()
	l, err := layout.Generate(layout.GenerateInput{
		PhotoSlots:    3,
		PNGElements:   1,
		TextCount:     1,
		PhotosBaseURL: "https://assets.example.com/tpl",
		PNGBaseURL:    "https://assets.example.com/tpl",
		Texts:         []layout.TextSpec{{ID: "title", DefaultText: "Hello"}},
		FontFamily:    "Inter",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return l
}

func TestAssignPhotosOrderedSlotFill(t *testing.T) {
	l := testLayout(t)
	c := NewPageContent()

	remaining := AssignPhotos(l, c, []string{"a.jpg", "b.jpg"})
	if len(remaining) != 0 {
		t.Fatalf("remaining = %v, want none", remaining)
	}
	if c.Images["photo_1"] != "a.jpg" || c.Images["photo_2"] != "b.jpg" {
		t.Errorf("slot fill order wrong: %v", c.Images)
	}
	if _, ok := c.Images["png_1"]; ok {
		t.Error("non-editable block received user content")
	}

	// Filled slots are skipped on subsequent assignment.
	remaining = AssignPhotos(l, c, []string{"c.jpg", "d.jpg"})
	if c.Images["photo_3"] != "c.jpg" {
		t.Errorf("photo_3 = %q, want c.jpg", c.Images["photo_3"])
	}
	if len(remaining) != 1 || remaining[0] != "d.jpg" {
		t.Errorf("remaining = %v, want [d.jpg]", remaining)
	}
}

func TestResolveTextNonEditableIgnoresUserContent(t *testing.T) {
	tb := &layout.TextBlock{ID: "locked", DefaultText: "fixed", Editable: false}
	c := NewPageContent()
	c.SetText("locked", "user override")

	if got := ResolveText(tb, c); got != "fixed" {
		t.Errorf("ResolveText = %q, want default text for non-editable block", got)
	}

	tb.Editable = true
	if got := ResolveText(tb, c); got != "user override" {
		t.Errorf("ResolveText = %q, want user content for editable block", got)
	}
}

func TestResolveImagePriorityOrder(t *testing.T) {
	ib := &layout.ImageBlock{ID: "photo_1", DefaultImageURL: "https://x/default.png", Editable: true}

	if got := ResolveImage(ib, NewPageContent()); got != "https://x/default.png" {
		t.Errorf("ResolveImage = %q, want default", got)
	}

	c := NewPageContent()
	c.SetImage("photo_1", "https://x/user.png")
	if got := ResolveImage(ib, c); got != "https://x/user.png" {
		t.Errorf("ResolveImage = %q, want user value", got)
	}

	ib.Editable = false
	if got := ResolveImage(ib, c); got != "https://x/default.png" {
		t.Errorf("ResolveImage = %q, want default for non-editable block", got)
	}

	empty := &layout.ImageBlock{ID: "blank", Editable: true}
	if got := ResolveImage(empty, c); got != "" {
		t.Errorf("ResolveImage = %q, want empty placeholder", got)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	c := NewPageContent()
	c.SetText("title", "v1")

	snap := c.Snapshot()
	c.SetText("title", "v2")

	if snap.Texts["title"] != "v1" {
		t.Errorf("snapshot text = %q, want v1", snap.Texts["title"])
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	l := testLayout(t)
	if err := s.PutLayout(ctx, "tpl1", 1, l); err != nil {
		t.Fatalf("PutLayout: %v", err)
	}
	got, err := s.GetLayout(ctx, "tpl1", 1)
	if err != nil {
		t.Fatalf("GetLayout: %v", err)
	}
	if got == nil || got.PageID != l.PageID {
		t.Fatal("layout round trip failed")
	}

	// Unknown pages return nil layout but empty (non-nil) content.
	if got, _ := s.GetLayout(ctx, "tpl1", 99); got != nil {
		t.Error("unknown page should have nil layout")
	}
	c, err := s.GetContent(ctx, "tpl1", 99)
	if err != nil || c == nil {
		t.Fatalf("GetContent on empty page: %v, %v", c, err)
	}

	c.SetText("title", "stored")
	if err := s.PutContent(ctx, "tpl1", 1, c); err != nil {
		t.Fatalf("PutContent: %v", err)
	}
	// Store holds a snapshot, not the live map.
	c.SetText("title", "mutated after put")
	got2, _ := s.GetContent(ctx, "tpl1", 1)
	if got2.Texts["title"] != "stored" {
		t.Errorf("stored content = %q, want snapshot isolation", got2.Texts["title"])
	}
}
