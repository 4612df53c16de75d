// Package raster renders one page layout plus resolved content into a
// fixed-size pixel buffer, replicating browser compositing rules offline:
// cover-fit images, rotation about block centers, z-ordered painting, and a
// font-relative baseline correction so text matches the live layout engine.
package raster

import (
	"image/color"
	"time"

	"github.com/magpress/magpress/pkg/errors"
)

// Page reference dimensions in logical units (CSS pixels at 1x).
const (
	PageWidth  = 1000
	PageHeight = 1415
)

// Scale bounds. The export multiplier is capped to bound peak memory:
// a 4x render of one page is already a ~90 MB RGBA buffer.
const (
	DefaultScale = 2.5
	MaxScale     = 4.0
)

// DefaultShiftRatio is the upward baseline-correction shift as a fraction
// of font size. The live layout engine and the offline rasterizer disagree
// slightly on line boxes; 6–12% of font size is the empirically useful
// range. Tunable via Options, not a fixed contract.
const DefaultShiftRatio = 0.08

// DefaultBottomPad is the descender guard in logical pixels at a 16px font,
// scaled linearly with font size. Independent of the baseline shift.
const DefaultBottomPad = 3.0

// Options configures a Rasterizer.
type Options struct {
	// Scale is the export resolution multiplier. Zero means DefaultScale.
	Scale float64

	// ShiftRatio is the baseline-correction shift as a fraction of font
	// size, in [0, 0.5]. Zero means DefaultShiftRatio; use a small
	// negative value to disable explicitly.
	ShiftRatio float64

	// Background fills the page before any block is painted. Nil means
	// opaque white.
	Background color.Color

	// FetchTimeout bounds each image fetch. Zero means the httputil
	// default (30s).
	FetchTimeout time.Duration

	// AllowedFonts restricts template font families. Empty means all
	// families are allowed. The built-in fallback is always allowed.
	AllowedFonts []string
}

// normalize validates and applies defaults, returning the effective
// options.
func (o Options) normalize() (Options, error) {
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 || o.Scale > MaxScale {
		return o, errors.New(errors.ErrCodeInvalidScale,
			"scale must be in (0, %g], got %g", MaxScale, o.Scale)
	}
	if o.ShiftRatio == 0 {
		o.ShiftRatio = DefaultShiftRatio
	}
	if o.ShiftRatio < 0 {
		o.ShiftRatio = 0
	}
	if o.ShiftRatio > 0.5 {
		return o, errors.New(errors.ErrCodeInvalidInput,
			"shift ratio must be in [0, 0.5], got %g", o.ShiftRatio)
	}
	if o.Background == nil {
		o.Background = color.White
	}
	return o, nil
}
