package export

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/magpress/magpress/pkg/errors"
)

func solidPage(n int, c color.Color) PageRaster {
	img := image.NewRGBA(image.Rect(0, 0, 40, 57))
	for y := 0; y < 57; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, c)
		}
	}
	return PageRaster{Number: n, Image: img}
}

func TestWriteDocument(t *testing.T) {
	pages := []PageRaster{
		solidPage(1, color.White),
		solidPage(2, color.Black),
		solidPage(3, color.RGBA{R: 200, A: 255}),
	}

	var buf bytes.Buffer
	if err := WriteDocument(&buf, pages, DocumentOptions{}); err != nil {
		t.Fatalf("WriteDocument error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
	// One image object per page
	if got := bytes.Count(buf.Bytes(), []byte("/Subtype /Image")); got != len(pages) {
		t.Errorf("embedded %d images, want %d", got, len(pages))
	}
}

func TestWriteDocumentOrder(t *testing.T) {
	tests := []struct {
		name     string
		pages    []PageRaster
		expected []int
	}{
		{"empty", nil, nil},
		{"nil raster", []PageRaster{{Number: 1}}, nil},
		{"descending", []PageRaster{solidPage(2, color.White), solidPage(1, color.White)}, nil},
		{"duplicate", []PageRaster{solidPage(1, color.White), solidPage(1, color.White)}, nil},
		{"missing expected", []PageRaster{solidPage(1, color.White)}, []int{1, 2}},
		{"wrong expected", []PageRaster{solidPage(1, color.White), solidPage(3, color.White)}, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteDocument(&buf, tt.pages, DocumentOptions{Expected: tt.expected})
			if err == nil {
				t.Fatal("expected an assembly error")
			}
			if errors.GetCode(err) != errors.ErrCodeAssembly {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeAssembly)
			}
			if buf.Len() > 0 {
				t.Error("no bytes should be written on failure")
			}
		})
	}
}

func TestWriteDocumentQuality(t *testing.T) {
	pages := []PageRaster{solidPage(1, color.White)}
	var buf bytes.Buffer
	if err := WriteDocument(&buf, pages, DocumentOptions{Quality: 101}); err == nil {
		t.Error("quality out of range should fail")
	}
	buf.Reset()
	if err := WriteDocument(&buf, pages, DocumentOptions{Quality: 50}); err != nil {
		t.Errorf("quality 50 should succeed: %v", err)
	}
}
