package export

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// FrameFunc renders one animation frame for a page. progress moves from 0
// (page fully shown) to 1 (transition to the next page complete) and must
// be deterministic and seekable: the same (page, progress) always yields
// the same frame.
type FrameFunc func(page int, progress float64) image.Image

// flipWindow is the fraction of a page's duration spent on the turn
// animation; the rest holds the page static.
const flipWindow = 0.2

// FlipFrame renders a page-turn frame: cur held static until the flip
// window, then squeezed toward its left edge with a slight darkening,
// revealing next underneath. next may be nil for the last page.
func FlipFrame(cur, next image.Image, progress float64) image.Image {
	progress = math.Min(math.Max(progress, 0), 1)

	start := 1 - flipWindow
	if progress <= start || next == nil {
		return cur
	}

	// t runs 0→1 across the flip window.
	t := (progress - start) / flipWindow
	b := cur.Bounds()
	w, h := b.Dx(), b.Dy()

	// Horizontal foreshortening follows a cosine ease, like a sheet
	// rotating about its left edge seen face-on.
	factor := math.Cos(t * math.Pi / 2)
	fw := int(math.Round(float64(w) * factor))

	canvas := imaging.Clone(next)
	if fw <= 0 {
		return canvas
	}

	sheet := imaging.Resize(cur, fw, h, imaging.Linear)
	sheet = imaging.AdjustBrightness(sheet, -30*t)
	return imaging.Paste(canvas, sheet, image.Pt(0, 0))
}

// SlideshowFrames returns a FrameFunc that always shows the page raster
// unchanged, for the static slideshow strategy.
func SlideshowFrames(pages []PageRaster) FrameFunc {
	return func(page int, _ float64) image.Image {
		return pages[page].Image
	}
}

// PageFlipFrames returns a FrameFunc animating a book-style page turn
// between consecutive rasters.
func PageFlipFrames(pages []PageRaster) FrameFunc {
	return func(page int, progress float64) image.Image {
		cur := pages[page].Image
		var next image.Image
		if page+1 < len(pages) {
			next = pages[page+1].Image
		}
		return FlipFrame(cur, next, progress)
	}
}
