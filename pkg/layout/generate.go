package layout

import (
	"fmt"
	"strings"

	"github.com/magpress/magpress/pkg/errors"
)

// TextSpec supplies the ID and default text for one generated text block.
type TextSpec struct {
	ID          string
	DefaultText string
}

// GenerateInput parameterizes layout generation.
type GenerateInput struct {
	// PhotoSlots is the number of editable image placeholders.
	PhotoSlots int

	// PNGElements is the number of non-editable decorative overlays.
	PNGElements int

	// TextCount is the number of text blocks.
	TextCount int

	// PhotosBaseURL is the base location for photo slot defaults,
	// e.g. "https://assets.example.com/template_pages/elegance".
	PhotosBaseURL string

	// PNGBaseURL is the base location for overlay images. May equal
	// PhotosBaseURL.
	PNGBaseURL string

	// PhotoPaths optionally names explicit photo paths like "0.png".
	// When empty, paths are generated as "<i>.png".
	PhotoPaths []string

	// PNGPaths optionally names explicit overlay paths. When empty,
	// paths are generated as "overlay_<i+1>.png".
	PNGPaths []string

	// Texts supplies IDs and default text per text block, in order.
	// Missing entries get an id of "text_<i+1>" and placeholder text.
	Texts []TextSpec

	// FontFamily applies to every generated text block.
	FontFamily string
}

// Generate produces a complete Layout from high-level parameters.
//
// Text blocks stack vertically from the top margin at 90-unit steps; the
// first block is styled as a title (48px, bold, centered) and the rest as
// body copy (24px, left-aligned). Photo slots stack below the text group at
// 420-unit steps and are editable. Decorative overlays layer on a staircase
// near page center and are never editable.
//
// Generation is a pure deterministic transform apart from the page ID;
// invalid inputs are rejected before any layout construction.
func Generate(in GenerateInput) (*Layout, error) {
	if in.PhotoSlots < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "photo slots must be >= 0, got %d", in.PhotoSlots)
	}
	if in.PNGElements < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png elements must be >= 0, got %d", in.PNGElements)
	}
	if in.TextCount < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "text count must be >= 0, got %d", in.TextCount)
	}
	if in.PhotoSlots > 0 {
		if err := errors.ValidateAssetURL(in.PhotosBaseURL); err != nil {
			return nil, err
		}
	}
	if in.PNGElements > 0 {
		if err := errors.ValidateAssetURL(in.PNGBaseURL); err != nil {
			return nil, err
		}
	}

	l := &Layout{PageID: NewPageID()}

	for i := 0; i < in.TextCount; i++ {
		spec := TextSpec{ID: fmt.Sprintf("text_%d", i+1), DefaultText: fmt.Sprintf("Text %d", i+1)}
		if i < len(in.Texts) {
			spec = in.Texts[i]
		}

		tb := TextBlock{
			ID:          spec.ID,
			X:           CanvasPad,
			Y:           float64(CanvasPad + i*90),
			Width:       CanvasWidth - CanvasPad*2,
			Height:      70,
			DefaultText: spec.DefaultText,
			FontSize:    24,
			FontWeight:  "500",
			FontFamily:  in.FontFamily,
			Color:       "#111111",
			Align:       AlignLeft,
			ZIndex:      10 + i,
			LineHeight:  30,
			Editable:    true,
		}
		if i == 0 {
			// First block is the title.
			tb.FontSize = 48
			tb.FontWeight = "700"
			tb.Align = AlignCenter
			tb.LineHeight = 56
		}
		l.TextBlocks = append(l.TextBlocks, tb)
	}

	photoPaths := in.PhotoPaths
	if len(photoPaths) == 0 {
		photoPaths = make([]string, in.PhotoSlots)
		for i := range photoPaths {
			photoPaths[i] = fmt.Sprintf("%d.png", i)
		}
	}
	if len(photoPaths) > in.PhotoSlots {
		photoPaths = photoPaths[:in.PhotoSlots]
	}

	// Photo slots stack below the text block group.
	yStart := float64(CanvasPad + max(in.TextCount, 1)*90 + 40)
	for i, p := range photoPaths {
		l.ImageBlocks = append(l.ImageBlocks, ImageBlock{
			ID:              fmt.Sprintf("photo_%d", i+1),
			X:               CanvasPad,
			Y:               yStart + float64(i*420),
			Width:           CanvasWidth - CanvasPad*2,
			Height:          380,
			ZIndex:          1 + i,
			Border:          &Border{Color: "#E5F1FF", Style: BorderSolid, Width: 0},
			DefaultImageURL: joinURL(in.PhotosBaseURL, p),
			Editable:        true,
		})
	}

	pngPaths := in.PNGPaths
	if len(pngPaths) == 0 {
		pngPaths = make([]string, in.PNGElements)
		for i := range pngPaths {
			pngPaths[i] = fmt.Sprintf("overlay_%d.png", i+1)
		}
	}
	if len(pngPaths) > in.PNGElements {
		pngPaths = pngPaths[:in.PNGElements]
	}

	// Decorative overlays layer on a fixed offset staircase near page
	// center, above every photo slot.
	for i, p := range pngPaths {
		l.ImageBlocks = append(l.ImageBlocks, ImageBlock{
			ID:              fmt.Sprintf("png_%d", i+1),
			X:               float64(300 + i*20),
			Y:               float64(320 + i*20),
			Width:           400,
			Height:          400,
			ZIndex:          100 + i,
			DefaultImageURL: joinURL(in.PNGBaseURL, p),
			Editable:        false,
		})
	}

	return l, nil
}

// joinURL joins a base URL and a path with exactly one slash between them.
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
