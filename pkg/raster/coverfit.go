package raster

import (
	"image"

	"github.com/disintegration/imaging"
)

// CoverFit scales src so the w×h target box is fully covered, preserving
// aspect ratio, then crops the overflow symmetrically around the center.
// The result is exactly w×h with no letterboxing and no background bleed,
// matching CSS background-size: cover with background-position: center.
func CoverFit(src image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	return imaging.Fill(src, w, h, imaging.Center, imaging.Lanczos)
}
