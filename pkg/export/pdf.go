package export

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/raster"
)

// PageRaster pairs a page number with its rendered pixels.
type PageRaster struct {
	Number int
	Image  image.Image
}

// DocumentOptions configures PDF assembly.
type DocumentOptions struct {
	// Quality is the JPEG embed quality in [1, 100]. Zero means 95.
	Quality int

	// Expected, when non-empty, asserts the exact page numbers the
	// document must contain, in order. A mismatch is a fatal assembly
	// error.
	Expected []int
}

func (o DocumentOptions) quality() int {
	if o.Quality == 0 {
		return 95
	}
	return o.Quality
}

// WriteDocument assembles ordered page rasters into a single paginated PDF
// on w. Each page occupies a fixed physical page equal to the logical page
// dimensions in points: full bleed, no margin, no scaling.
//
// Pages must arrive in strictly ascending page-number order with no nil
// rasters; violations are fatal assembly errors, never silently reordered.
func WriteDocument(w io.Writer, pages []PageRaster, opts DocumentOptions) error {
	if err := checkOrder(pages, opts.Expected); err != nil {
		return err
	}
	q := opts.quality()
	if q < 1 || q > 100 {
		return errors.New(errors.ErrCodeInvalidInput, "jpeg quality must be in [1, 100], got %d", q)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: raster.PageWidth, Ht: raster.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	for _, p := range pages {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, p.Image, &jpeg.Options{Quality: q}); err != nil {
			return errors.Wrap(errors.ErrCodeAssembly, err, "encode page %d", p.Number)
		}

		name := fmt.Sprintf("page-%d", p.Number)
		imgOpts := gofpdf.ImageOptions{ImageType: "JPEG"}
		pdf.RegisterImageOptionsReader(name, imgOpts, &buf)
		if pdf.Err() {
			return errors.Wrap(errors.ErrCodeAssembly, pdf.Error(), "register page %d", p.Number)
		}

		pdf.AddPage()
		pdf.ImageOptions(name, 0, 0, raster.PageWidth, raster.PageHeight, false, imgOpts, 0, "")
		if pdf.Err() {
			return errors.Wrap(errors.ErrCodeAssembly, pdf.Error(), "place page %d", p.Number)
		}
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(errors.ErrCodeAssembly, err, "write pdf")
	}
	return nil
}

// checkOrder enforces strict ascending page order, non-nil rasters, and
// (when given) the exact expected page list.
func checkOrder(pages []PageRaster, expected []int) error {
	if len(pages) == 0 {
		return errors.New(errors.ErrCodeAssembly, "no pages to assemble")
	}
	for i, p := range pages {
		if p.Image == nil {
			return errors.New(errors.ErrCodeAssembly, "page %d has no raster", p.Number)
		}
		if i > 0 && p.Number <= pages[i-1].Number {
			return errors.New(errors.ErrCodeAssembly,
				"pages out of order: %d after %d", p.Number, pages[i-1].Number)
		}
	}
	if len(expected) > 0 {
		if len(expected) != len(pages) {
			return errors.New(errors.ErrCodeAssembly,
				"missing pages: have %d, want %d", len(pages), len(expected))
		}
		for i, want := range expected {
			if pages[i].Number != want {
				return errors.New(errors.ErrCodeAssembly,
					"page %d missing (found %d)", want, pages[i].Number)
			}
		}
	}
	return nil
}
