package layout

import (
	"bytes"
	"strings"
	"testing"
)

func validInput() GenerateInput {
	return GenerateInput{
		PhotoSlots:    2,
		PNGElements:   1,
		TextCount:     2,
		PhotosBaseURL: "https://assets.example.com/template_pages/elegance",
		PNGBaseURL:    "https://assets.example.com/template_pages/elegance",
		Texts: []TextSpec{
			{ID: "title", DefaultText: "My Magazine"},
			{ID: "subtitle", DefaultText: "A story in pictures"},
		},
		FontFamily: "PlayfairDisplay SC",
	}
}

func TestGenerateRejectsNegativeCounts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GenerateInput)
	}{
		{"negative photo slots", func(in *GenerateInput) { in.PhotoSlots = -1 }},
		{"negative png elements", func(in *GenerateInput) { in.PNGElements = -3 }},
		{"negative text count", func(in *GenerateInput) { in.TextCount = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			if _, err := Generate(in); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestGenerateRejectsBadAssetURL(t *testing.T) {
	in := validInput()
	in.PhotosBaseURL = "ftp://example.com/assets"
	if _, err := Generate(in); err == nil {
		t.Fatal("expected validation error for non-http base url")
	}
}

func TestGenerateLayoutStructure(t *testing.T) {
	l, err := Generate(validInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := l.Validate(); err != nil {
		t.Fatalf("generated layout invalid: %v", err)
	}

	if len(l.TextBlocks) != 2 {
		t.Fatalf("text blocks = %d, want 2", len(l.TextBlocks))
	}
	if len(l.ImageBlocks) != 3 {
		t.Fatalf("image blocks = %d, want 3", len(l.ImageBlocks))
	}

	title := l.TextBlocks[0]
	if title.ID != "title" || title.FontSize != 48 || title.FontWeight != "700" || title.Align != AlignCenter {
		t.Errorf("title block styling wrong: %+v", title)
	}
	body := l.TextBlocks[1]
	if body.FontSize != 24 || body.Align != AlignLeft {
		t.Errorf("body block styling wrong: %+v", body)
	}
	if body.Y != title.Y+90 {
		t.Errorf("body y = %v, want title y + 90", body.Y)
	}

	// Photo slots stack below the text group at 420-unit steps.
	p1, p2 := l.ImageBlocks[0], l.ImageBlocks[1]
	wantY := float64(CanvasPad + 2*90 + 40)
	if p1.Y != wantY {
		t.Errorf("photo_1 y = %v, want %v", p1.Y, wantY)
	}
	if p2.Y != wantY+420 {
		t.Errorf("photo_2 y = %v, want %v", p2.Y, wantY+420)
	}
	if !p1.Editable || !p2.Editable {
		t.Error("photo slots must be editable")
	}
	if p1.DefaultImageURL != "https://assets.example.com/template_pages/elegance/0.png" {
		t.Errorf("photo_1 url = %q", p1.DefaultImageURL)
	}

	overlay := l.ImageBlocks[2]
	if overlay.Editable {
		t.Error("decorative overlay must not be editable")
	}
	if overlay.ZIndex < 100 {
		t.Errorf("overlay z-index = %d, want >= 100", overlay.ZIndex)
	}
	if overlay.X != 300 || overlay.Y != 320 {
		t.Errorf("overlay position = (%v, %v), want (300, 320)", overlay.X, overlay.Y)
	}
}

func TestGenerateExplicitPaths(t *testing.T) {
	in := validInput()
	in.PhotoPaths = []string{"cover.png", "spread.png", "extra.png"}
	l, err := Generate(in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// Explicit paths are truncated to the slot count.
	photos := l.EditableImageBlocks()
	if len(photos) != 2 {
		t.Fatalf("editable blocks = %d, want 2", len(photos))
	}
	if !strings.HasSuffix(photos[0].DefaultImageURL, "/cover.png") {
		t.Errorf("photo_1 url = %q", photos[0].DefaultImageURL)
	}
}

func TestGeneratePageIDsNeverRepeat(t *testing.T) {
	const n = 20000
	seen := make(map[string]bool, n)
	for range n {
		in := validInput()
		l, err := Generate(in)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !strings.HasPrefix(l.PageID, "tpl_") {
			t.Fatalf("page id %q missing tpl_ prefix", l.PageID)
		}
		if seen[l.PageID] {
			t.Fatalf("page id %q issued twice", l.PageID)
		}
		seen[l.PageID] = true
	}
}

func TestRandomIDShape(t *testing.T) {
	id := randomID()
	parts := strings.Split(id, "-")
	if len(parts) != 5 {
		t.Fatalf("randomID %q not UUID-shaped", id)
	}
	if len(parts[2]) != 4 || parts[2][0] != '4' {
		t.Errorf("randomID %q missing version 4 marker", id)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	l, err := Generate(validInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, err := Marshal(l)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.PageID != l.PageID {
		t.Errorf("page id %q != %q", got.PageID, l.PageID)
	}
	if len(got.TextBlocks) != len(l.TextBlocks) || len(got.ImageBlocks) != len(l.ImageBlocks) {
		t.Error("round trip lost blocks")
	}
}

func TestValidateDuplicateBlockIDs(t *testing.T) {
	l := &Layout{
		PageID: NewPageID(),
		TextBlocks: []TextBlock{
			{ID: "a", FontSize: 12},
			{ID: "a", FontSize: 12},
		},
	}
	if err := l.Validate(); err == nil {
		t.Fatal("expected duplicate id error")
	}

	l2 := &Layout{
		PageID:      NewPageID(),
		TextBlocks:  []TextBlock{{ID: "a", FontSize: 12}},
		ImageBlocks: []ImageBlock{{ID: "a"}},
	}
	if err := l2.Validate(); err == nil {
		t.Fatal("expected cross-kind duplicate id error")
	}
}
