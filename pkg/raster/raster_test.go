package raster

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/magpress/magpress/pkg/content"
	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/layout"
)

func testLayout() *layout.Layout {
	return &layout.Layout{
		PageID: "tpl_test",
		TextBlocks: []layout.TextBlock{{
			ID: "title", X: 40, Y: 40, Width: 920, Height: 60,
			DefaultText: "Summer Issue",
			FontSize:    48, FontWeight: "700", LineHeight: 56,
			Align: layout.AlignCenter, Color: "#222222", Editable: true,
		}},
		ImageBlocks: []layout.ImageBlock{{
			ID: "photo_0", X: 40, Y: 220, Width: 920, Height: 380,
			DefaultImageURL: "photo://0", Editable: true, ZIndex: 1,
		}},
	}
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func testRasterizer(t *testing.T, images map[string]image.Image, opts Options) *Rasterizer {
	t.Helper()
	r, err := New(NewStaticFetcher(images), nil, opts)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return r
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		scale float64
		w, h  int
	}{
		{1, 1000, 1415},
		{2, 2000, 2830},
		{2.5, 2500, 3538},
		{0.1, 100, 142},
	}
	for _, tt := range tests {
		r := testRasterizer(t, nil, Options{Scale: tt.scale})
		if w, h := r.Dimensions(); w != tt.w || h != tt.h {
			t.Errorf("scale %v: dimensions = %dx%d, want %dx%d", tt.scale, w, h, tt.w, tt.h)
		}
	}
}

func TestOptionsValidation(t *testing.T) {
	if _, err := New(nil, nil, Options{Scale: 5}); errors.GetCode(err) != errors.ErrCodeInvalidScale {
		t.Errorf("scale above max: code = %v", errors.GetCode(err))
	}
	if _, err := New(nil, nil, Options{Scale: -1}); err == nil {
		t.Error("negative scale should fail")
	}
	if _, err := New(nil, nil, Options{ShiftRatio: 0.6}); err == nil {
		t.Error("shift ratio above 0.5 should fail")
	}

	r := testRasterizer(t, nil, Options{})
	if r.Scale() != DefaultScale {
		t.Errorf("default scale = %v, want %v", r.Scale(), DefaultScale)
	}
}

func TestRenderPageDeterministic(t *testing.T) {
	images := map[string]image.Image{"photo://0": solid(30, 30, color.RGBA{R: 255, A: 255})}
	l := testLayout()
	c := content.NewPageContent()
	c.SetText("title", "Hello")

	r := testRasterizer(t, images, Options{Scale: 0.1})
	a, err := r.RenderPage(context.Background(), l, c)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	b, err := r.RenderPage(context.Background(), l, c)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}

	if !samePixels(a, b) {
		t.Error("identical inputs must produce identical pixels")
	}
}

func TestRenderPageErrors(t *testing.T) {
	r := testRasterizer(t, nil, Options{Scale: 0.1})

	if _, err := r.RenderPage(context.Background(), nil, nil); errors.GetCode(err) != errors.ErrCodePageMissing {
		t.Errorf("nil layout: code = %v", errors.GetCode(err))
	}

	bad := testLayout()
	bad.ImageBlocks = append(bad.ImageBlocks, layout.ImageBlock{ID: "photo_0"})
	if _, err := r.RenderPage(context.Background(), bad, nil); err == nil {
		t.Error("duplicate block IDs should fail validation")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderPage(ctx, testLayout(), nil); errors.GetCode(err) != errors.ErrCodeCancelled {
		t.Errorf("cancelled context: code = %v", errors.GetCode(err))
	}
}

func TestFetchFailureDegradesToTransparentSlot(t *testing.T) {
	l := testLayout()
	l.TextBlocks = nil

	bg := color.NRGBA{R: 1, G: 2, B: 3, A: 255}

	// No fetchable image at all: the slot shows bare background.
	r := testRasterizer(t, nil, Options{Scale: 0.1, Background: bg})
	img, err := r.RenderPage(context.Background(), l, nil)
	if err != nil {
		t.Fatalf("render must survive fetch failure: %v", err)
	}

	// Sample the slot's center: photo_0 covers (40,220)-(960,600) at 1x.
	cr, cg, cb, _ := img.At(50, 41).RGBA()
	if uint8(cr>>8) != bg.R || uint8(cg>>8) != bg.G || uint8(cb>>8) != bg.B {
		t.Error("failed slot should stay transparent over the background")
	}
}

func TestNonEditableBlockIgnoresUserContent(t *testing.T) {
	l := testLayout()
	l.TextBlocks = nil
	l.ImageBlocks[0].Editable = false

	images := map[string]image.Image{
		"photo://0":    solid(30, 30, color.RGBA{R: 255, A: 255}),
		"photo://user": solid(30, 30, color.RGBA{B: 255, A: 255}),
	}

	c := content.NewPageContent()
	c.SetImage("photo_0", "photo://user")

	r := testRasterizer(t, images, Options{Scale: 0.1})
	withUser, err := r.RenderPage(context.Background(), l, c)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	withoutUser, err := r.RenderPage(context.Background(), l, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !samePixels(withUser, withoutUser) {
		t.Error("non-editable blocks must always render their default")
	}
}

func TestCoverFit(t *testing.T) {
	// A wide source fills a square target edge to edge.
	src := solid(100, 20, color.White)
	out := CoverFit(src, 40, 40)
	if b := out.Bounds(); b.Dx() != 40 || b.Dy() != 40 {
		t.Errorf("CoverFit dims = %dx%d, want 40x40", b.Dx(), b.Dy())
	}

	// A tall source too.
	out = CoverFit(solid(20, 100, color.White), 40, 40)
	if b := out.Bounds(); b.Dx() != 40 || b.Dy() != 40 {
		t.Errorf("CoverFit dims = %dx%d, want 40x40", b.Dx(), b.Dy())
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}, true},
		{"#000000", color.NRGBA{0, 0, 0, 255}, true},
		{"#E5F1FF", color.NRGBA{0xE5, 0xF1, 0xFF, 255}, true},
		{"#11223344", color.NRGBA{0x11, 0x22, 0x33, 0x44}, true},
		{"red", color.NRGBA{}, false},
		{"#12", color.NRGBA{}, false},
		{"#gggggg", color.NRGBA{}, false},
		{"", color.NRGBA{}, false},
	}
	fallback := color.NRGBA{9, 9, 9, 9}
	for _, tt := range tests {
		got := parseHexColor(tt.in, fallback)
		if tt.ok {
			if got != tt.want {
				t.Errorf("parseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		} else if got != fallback {
			t.Errorf("parseHexColor(%q) should fall back, got %v", tt.in, got)
		}
	}
}

func TestIsBoldWeight(t *testing.T) {
	for _, w := range []string{"bold", "600", "700", "900"} {
		if !IsBoldWeight(w) {
			t.Errorf("IsBoldWeight(%q) = false", w)
		}
	}
	for _, w := range []string{"", "400", "500", "normal"} {
		if IsBoldWeight(w) {
			t.Errorf("IsBoldWeight(%q) = true", w)
		}
	}
}

func samePixels(a, b image.Image) bool {
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
