package content

import (
	"context"
	"testing"

	"github.com/magpress/magpress/pkg/layout"
)

func TestDirStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore error: %v", err)
	}

	l, err := layout.Generate(layout.GenerateInput{TextCount: 1})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := store.PutLayout(ctx, "summer", 1, l); err != nil {
		t.Fatalf("PutLayout error: %v", err)
	}
	if err := store.PutLayout(ctx, "summer", 3, l); err != nil {
		t.Fatalf("PutLayout error: %v", err)
	}

	got, err := store.GetLayout(ctx, "summer", 1)
	if err != nil {
		t.Fatalf("GetLayout error: %v", err)
	}
	if got == nil || got.PageID != l.PageID {
		t.Errorf("GetLayout = %+v", got)
	}

	// Missing layout is (nil, nil)
	missing, err := store.GetLayout(ctx, "summer", 2)
	if err != nil || missing != nil {
		t.Errorf("GetLayout(missing) = (%v, %v)", missing, err)
	}

	// Missing content is empty, not nil
	c, err := store.GetContent(ctx, "summer", 1)
	if err != nil {
		t.Fatalf("GetContent error: %v", err)
	}
	if c == nil || len(c.Texts) != 0 {
		t.Errorf("GetContent(missing) = %+v", c)
	}

	// Content round trip
	c.SetText(l.TextBlocks[0].ID, "hi")
	if err := store.PutContent(ctx, "summer", 1, c); err != nil {
		t.Fatalf("PutContent error: %v", err)
	}
	again, err := store.GetContent(ctx, "summer", 1)
	if err != nil {
		t.Fatalf("GetContent error: %v", err)
	}
	if again.Texts[l.TextBlocks[0].ID] != "hi" {
		t.Errorf("content = %+v", again)
	}

	// Pages lists stored layouts ascending
	pages, err := store.Pages("summer")
	if err != nil {
		t.Fatalf("Pages error: %v", err)
	}
	if len(pages) != 2 || pages[0] != 1 || pages[1] != 3 {
		t.Errorf("Pages = %v, want [1 3]", pages)
	}

	// Unknown template has no pages
	none, err := store.Pages("winter")
	if err != nil || none != nil {
		t.Errorf("Pages(unknown) = (%v, %v)", none, err)
	}
}
