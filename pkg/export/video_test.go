package export

import (
	"image"
	"image/color"
	"testing"
	"time"
)

func TestTotalDuration(t *testing.T) {
	opts := VideoOptions{}

	tests := []struct {
		pages int
		want  time.Duration
	}{
		{1, 6 * time.Second},
		{5, 30 * time.Second},
		{10, 60 * time.Second},
		{11, 60 * time.Second},
		{40, 60 * time.Second},
	}
	for _, tt := range tests {
		if got := opts.TotalDuration(tt.pages); got != tt.want {
			t.Errorf("TotalDuration(%d) = %v, want %v", tt.pages, got, tt.want)
		}
	}
}

func TestFrameCounts(t *testing.T) {
	opts := VideoOptions{}

	for _, pages := range []int{1, 3, 7, 10, 11, 13, 40} {
		counts := opts.frameCounts(pages)
		if len(counts) != pages {
			t.Fatalf("pages=%d: got %d counts", pages, len(counts))
		}

		total := 0
		for i, c := range counts {
			if c <= 0 {
				t.Errorf("pages=%d: page %d got %d frames", pages, i, c)
			}
			total += c
		}

		// The summed frame budget must reproduce the exact runtime.
		wantFrames := int(opts.TotalDuration(pages).Seconds() * 30)
		if total != wantFrames {
			t.Errorf("pages=%d: %d frames, want %d", pages, total, wantFrames)
		}

		// No page deviates by more than one frame from its neighbors.
		for i := 1; i < len(counts); i++ {
			if d := counts[i] - counts[0]; d < -1 || d > 1 {
				t.Errorf("pages=%d: uneven distribution %v", pages, counts)
				break
			}
		}
	}
}

func TestFlipFrameDeterministic(t *testing.T) {
	cur := solidPage(1, color.White).Image
	next := solidPage(2, color.Black).Image

	for _, p := range []float64{0, 0.5, 0.85, 0.95, 1} {
		a := FlipFrame(cur, next, p)
		b := FlipFrame(cur, next, p)
		if !sameImage(a, b) {
			t.Errorf("FlipFrame(progress=%v) is not deterministic", p)
		}
	}
}

func TestFlipFrameStaticPhase(t *testing.T) {
	cur := solidPage(1, color.White).Image
	next := solidPage(2, color.Black).Image

	// Before the flip window the current page shows unchanged.
	if got := FlipFrame(cur, next, 0.5); got != cur {
		t.Error("static phase should return the current raster")
	}

	// A nil next page (last page) never animates.
	if got := FlipFrame(cur, nil, 0.95); got != cur {
		t.Error("last page should stay static")
	}

	// Inside the window the frame differs from both pages.
	mid := FlipFrame(cur, next, 0.9)
	if mid == cur {
		t.Error("flip frame should not be the bare current page")
	}
	if sameImage(mid, next) {
		t.Error("mid-flip frame should still show part of the current page")
	}
}

func TestSlideshowFrames(t *testing.T) {
	pages := []PageRaster{solidPage(1, color.White), solidPage(2, color.Black)}
	fn := SlideshowFrames(pages)

	for i := range pages {
		for _, p := range []float64{0, 0.5, 0.99} {
			if fn(i, p) != pages[i].Image {
				t.Errorf("slideshow frame (%d, %v) is not the page raster", i, p)
			}
		}
	}
}

func sameImage(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	bo := a.Bounds()
	for y := bo.Min.Y; y < bo.Max.Y; y++ {
		for x := bo.Min.X; x < bo.Max.X; x++ {
			ar, ag, ab, aa := a.At(x, y).RGBA()
			br, bg, bb, ba := b.At(x, y).RGBA()
			if ar != br || ag != bg || ab != bb || aa != ba {
				return false
			}
		}
	}
	return true
}
