// Package content manages session-scoped page content.
//
// Page content is the per-page mapping from block ID to user-supplied text
// and image references. It is owned exclusively by the editing session until
// the user triggers an export, at which point it is frozen into an immutable
// snapshot; in-progress edits after that point never leak into a running
// export.
package content

import (
	"maps"

	"github.com/magpress/magpress/pkg/layout"
)

// PageContent holds the user-supplied values for a single page, keyed by
// block ID.
type PageContent struct {
	Texts  map[string]string `json:"texts" bson:"texts"`
	Images map[string]string `json:"images" bson:"images"`
}

// NewPageContent returns empty content for a fresh editing session.
func NewPageContent() *PageContent {
	return &PageContent{
		Texts:  make(map[string]string),
		Images: make(map[string]string),
	}
}

// SetText records user text for a block ID.
func (c *PageContent) SetText(blockID, text string) {
	if c.Texts == nil {
		c.Texts = make(map[string]string)
	}
	c.Texts[blockID] = text
}

// SetImage records a user image reference for a block ID.
func (c *PageContent) SetImage(blockID, ref string) {
	if c.Images == nil {
		c.Images = make(map[string]string)
	}
	c.Images[blockID] = ref
}

// Snapshot returns a deep copy. Export jobs operate on snapshots so that
// concurrent session edits cannot become partially visible mid-export.
func (c *PageContent) Snapshot() *PageContent {
	if c == nil {
		return NewPageContent()
	}
	out := NewPageContent()
	maps.Copy(out.Texts, c.Texts)
	maps.Copy(out.Images, c.Images)
	return out
}

// AssignPhotos fills uploaded photo references into a page's editable image
// blocks in layout declaration order. Non-editable blocks are skipped
// deterministically; references beyond the available slots are ignored and
// returned as the remainder.
//
// This replaces the implicit "first empty slot wins" behavior with an
// explicit ordered slot-fill: slot order is exactly the order editable
// blocks appear in the layout.
func AssignPhotos(l *layout.Layout, c *PageContent, photos []string) (remaining []string) {
	if c == nil || l == nil {
		return photos
	}
	i := 0
	for _, ib := range l.ImageBlocks {
		if !ib.Editable {
			continue
		}
		if _, taken := c.Images[ib.ID]; taken {
			continue
		}
		if i >= len(photos) {
			break
		}
		c.SetImage(ib.ID, photos[i])
		i++
	}
	return photos[i:]
}

// ResolveText returns the text to render for a block: user content for
// editable blocks, the block's default otherwise. A non-editable block
// never reflects externally supplied content.
func ResolveText(tb *layout.TextBlock, c *PageContent) string {
	if tb.Editable && c != nil {
		if v, ok := c.Texts[tb.ID]; ok && v != "" {
			return v
		}
	}
	return tb.DefaultText
}

// ResolveImage returns the image reference to render for a block, applying
// the resolution order: user value (editable blocks only), then the block
// default. An empty return means the slot renders as a transparent
// placeholder.
func ResolveImage(ib *layout.ImageBlock, c *PageContent) string {
	if ib.Editable && c != nil {
		if v, ok := c.Images[ib.ID]; ok && v != "" {
			return v
		}
	}
	return ib.DefaultImageURL
}
