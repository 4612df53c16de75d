// Package layout defines the declarative page layout model and its generator.
//
// A [Layout] describes one template page: an ordered set of positioned text
// blocks and image blocks with size, rotation, z-order, and an editable flag.
// Layouts are created once (by [Generate] or an equivalent authoring step)
// and are thereafter read-only to the rendering pipeline. Editing sessions
// key user content by block ID, never by position, so block IDs must stay
// stable for the lifetime of a template.
//
// All positions and sizes are expressed in logical canvas units (CSS pixels
// at 1x) on a 1000×1400 reference canvas, regardless of the final render
// resolution.
package layout

import (
	"encoding/json"
	"io"

	"github.com/magpress/magpress/pkg/errors"
)

// Canvas reference dimensions in logical units.
const (
	CanvasWidth  = 1000
	CanvasHeight = 1400
	CanvasPad    = 40
)

// Align is the horizontal text alignment within a text block.
type Align string

// Supported alignments.
const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// BorderStyle is the stroke style of an image block border.
type BorderStyle string

// Supported border styles.
const (
	BorderSolid  BorderStyle = "solid"
	BorderDashed BorderStyle = "dashed"
	BorderDotted BorderStyle = "dotted"
)

// TextBlock is a positioned text region within a page layout.
type TextBlock struct {
	ID            string  `json:"id" bson:"id"`
	X             float64 `json:"x" bson:"x"`
	Y             float64 `json:"y" bson:"y"`
	Width         float64 `json:"width" bson:"width"`
	Height        float64 `json:"height" bson:"height"`
	DefaultText   string  `json:"defaultText" bson:"default_text"`
	FontSize      float64 `json:"fontSize" bson:"font_size"`
	FontWeight    string  `json:"fontWeight" bson:"font_weight"`
	FontFamily    string  `json:"fontFamily" bson:"font_family"`
	Color         string  `json:"color" bson:"color"`
	Align         Align   `json:"align" bson:"align"`
	ZIndex        int     `json:"zIndex" bson:"z_index"`
	LineHeight    float64 `json:"lineHeight" bson:"line_height"`
	LetterSpacing float64 `json:"letterSpacing" bson:"letter_spacing"`
	Rotate        float64 `json:"rotate" bson:"rotate"`
	Editable      bool    `json:"editable" bson:"editable"`
}

// Border describes an optional image block border.
type Border struct {
	Color string      `json:"color" bson:"color"`
	Style BorderStyle `json:"style" bson:"style"`
	Width float64     `json:"width" bson:"width"`
}

// ImageBlock is a positioned image region within a page layout.
//
// The displayed image resolves in priority order: user-supplied value for
// this block ID, then DefaultImageURL, then an empty transparent placeholder.
// Rendering always fits the resolved image with cover semantics.
type ImageBlock struct {
	ID              string  `json:"id" bson:"id"`
	X               float64 `json:"x" bson:"x"`
	Y               float64 `json:"y" bson:"y"`
	Width           float64 `json:"width" bson:"width"`
	Height          float64 `json:"height" bson:"height"`
	ZIndex          int     `json:"zIndex" bson:"z_index"`
	Rotate          float64 `json:"rotate" bson:"rotate"`
	BorderRadius    float64 `json:"borderRadius" bson:"border_radius"`
	Border          *Border `json:"border,omitempty" bson:"border,omitempty"`
	DefaultImageURL string  `json:"defaultImageUrl" bson:"default_image_url"`
	Editable        bool    `json:"editable" bson:"editable"`
}

// Layout is the declarative arrangement of one template page.
type Layout struct {
	// PageID is an opaque unique identifier, generated once and never
	// reused. See NewPageID.
	PageID string `json:"pageName" bson:"page_id"`

	TextBlocks  []TextBlock  `json:"textBlocks" bson:"text_blocks"`
	ImageBlocks []ImageBlock `json:"imageBlocks" bson:"image_blocks"`
}

// Validate checks structural invariants: a non-empty page ID, well-formed
// block IDs, uniqueness of block IDs within the page, and non-negative
// block dimensions.
func (l *Layout) Validate() error {
	if l.PageID == "" {
		return errors.New(errors.ErrCodeInvalidLayout, "layout has no page id")
	}

	seen := make(map[string]bool, len(l.TextBlocks)+len(l.ImageBlocks))

	for _, tb := range l.TextBlocks {
		if err := errors.ValidateBlockID(tb.ID); err != nil {
			return err
		}
		if seen[tb.ID] {
			return errors.New(errors.ErrCodeInvalidLayout, "duplicate block id %q", tb.ID)
		}
		seen[tb.ID] = true
		if tb.Width < 0 || tb.Height < 0 {
			return errors.New(errors.ErrCodeInvalidLayout, "text block %q has negative size", tb.ID)
		}
		if tb.FontSize <= 0 {
			return errors.New(errors.ErrCodeInvalidLayout, "text block %q has non-positive font size", tb.ID)
		}
	}

	for _, ib := range l.ImageBlocks {
		if err := errors.ValidateBlockID(ib.ID); err != nil {
			return err
		}
		if seen[ib.ID] {
			return errors.New(errors.ErrCodeInvalidLayout, "duplicate block id %q", ib.ID)
		}
		seen[ib.ID] = true
		if ib.Width < 0 || ib.Height < 0 {
			return errors.New(errors.ErrCodeInvalidLayout, "image block %q has negative size", ib.ID)
		}
	}

	return nil
}

// TextBlock returns the text block with the given ID, or nil.
func (l *Layout) TextBlock(id string) *TextBlock {
	for i := range l.TextBlocks {
		if l.TextBlocks[i].ID == id {
			return &l.TextBlocks[i]
		}
	}
	return nil
}

// ImageBlock returns the image block with the given ID, or nil.
func (l *Layout) ImageBlock(id string) *ImageBlock {
	for i := range l.ImageBlocks {
		if l.ImageBlocks[i].ID == id {
			return &l.ImageBlocks[i]
		}
	}
	return nil
}

// EditableImageBlocks returns the editable image blocks in declaration
// order. This is the slot order used by ordered photo assignment.
func (l *Layout) EditableImageBlocks() []ImageBlock {
	var out []ImageBlock
	for _, ib := range l.ImageBlocks {
		if ib.Editable {
			out = append(out, ib)
		}
	}
	return out
}

// Marshal serializes a layout to JSON.
func Marshal(l *Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Read deserializes a layout from JSON and validates it.
func Read(r io.Reader) (*Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "decode layout")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}
