package raster

import (
	"context"
	"image"
	"image/color"
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"

	"github.com/magpress/magpress/pkg/content"
	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/layout"
)

// Rasterizer renders pages into pixel buffers. It is safe for sequential
// use by a single export job; concurrent jobs should each create their own
// (font faces are not safe to share across goroutines while drawing).
type Rasterizer struct {
	opts   Options
	fetch  Fetcher
	fonts  *FontRegistry
	logger *log.Logger
}

// New creates a Rasterizer. A nil fetcher uses an HTTP fetcher with the
// configured timeout; a nil logger discards output.
func New(fetch Fetcher, logger *log.Logger, opts Options) (*Rasterizer, error) {
	norm, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	if fetch == nil {
		fetch = NewHTTPFetcher(norm.FetchTimeout)
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Rasterizer{
		opts:   norm,
		fetch:  fetch,
		fonts:  NewFontRegistry(norm.AllowedFonts),
		logger: logger,
	}, nil
}

// Scale returns the effective resolution multiplier.
func (r *Rasterizer) Scale() float64 { return r.opts.Scale }

// Dimensions returns the output pixel dimensions for the configured scale.
func (r *Rasterizer) Dimensions() (w, h int) {
	return int(math.Round(PageWidth * r.opts.Scale)),
		int(math.Round(PageHeight * r.opts.Scale))
}

// RenderPage renders one layout plus resolved content into a pixel buffer
// of exactly Dimensions(). Resource failures (image fetch, font load)
// degrade to transparent slots and never abort the page; only a missing or
// invalid layout is an error.
//
// Paint order: background, then image blocks in ascending z-order, then
// text blocks in ascending z-order. Blocks sharing a z-order render in
// layout declaration order.
func (r *Rasterizer) RenderPage(ctx context.Context, l *layout.Layout, c *content.PageContent) (image.Image, error) {
	if l == nil {
		return nil, errors.New(errors.ErrCodePageMissing, "no layout for page")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	// Parse every font up front so no metric is sampled mid-load.
	var reqs []FontRequest
	for _, tb := range l.TextBlocks {
		reqs = append(reqs, FontRequest{Family: tb.FontFamily, Bold: IsBoldWeight(tb.FontWeight)})
	}
	if err := r.fonts.Preload(reqs); err != nil {
		return nil, err
	}

	w, h := r.Dimensions()
	dc := gg.NewContext(w, h)
	dc.SetColor(r.opts.Background)
	dc.Clear()

	for _, ib := range blocksByZ(l.ImageBlocks) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCancelled, err, "render page %s", l.PageID)
		}
		r.drawImageBlock(ctx, dc, &ib, c)
	}

	for _, tb := range textBlocksByZ(l.TextBlocks) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCancelled, err, "render page %s", l.PageID)
		}
		r.drawTextBlock(dc, &tb, c)
	}

	return dc.Image(), nil
}

// blocksByZ returns image blocks sorted by ascending z-order, preserving
// declaration order within equal z.
func blocksByZ(blocks []layout.ImageBlock) []layout.ImageBlock {
	out := make([]layout.ImageBlock, len(blocks))
	copy(out, blocks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

func textBlocksByZ(blocks []layout.TextBlock) []layout.TextBlock {
	out := make([]layout.TextBlock, len(blocks))
	copy(out, blocks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

func (r *Rasterizer) drawImageBlock(ctx context.Context, dc *gg.Context, ib *layout.ImageBlock, c *content.PageContent) {
	s := r.opts.Scale
	bx, by := ib.X*s, ib.Y*s
	bw, bh := ib.Width*s, ib.Height*s
	if bw <= 0 || bh <= 0 {
		return
	}

	ref := content.ResolveImage(ib, c)
	if ref == "" {
		// Empty placeholder: the slot stays fully transparent.
		return
	}

	img, err := r.fetch.Fetch(ctx, ref)
	if err != nil {
		// Resource error: degrade to a transparent slot, keep the page.
		r.logger.Warn("image slot left blank", "block", ib.ID, "ref", ref, "err", err)
		return
	}

	fitted := CoverFit(img, int(math.Round(bw)), int(math.Round(bh)))

	dc.Push()
	if ib.Rotate != 0 {
		// Rotation is applied around the block's own center, after fit.
		dc.RotateAbout(gg.Radians(ib.Rotate), bx+bw/2, by+bh/2)
	}

	radius := ib.BorderRadius * s
	if radius > 0 {
		dc.DrawRoundedRectangle(bx, by, bw, bh, radius)
		dc.Clip()
	}
	dc.DrawImage(fitted, int(math.Round(bx)), int(math.Round(by)))
	if radius > 0 {
		dc.ResetClip()
	}

	if b := ib.Border; b != nil && b.Width > 0 {
		r.strokeBorder(dc, b, bx, by, bw, bh, radius)
	}
	dc.Pop()
}

func (r *Rasterizer) strokeBorder(dc *gg.Context, b *layout.Border, x, y, w, h, radius float64) {
	s := r.opts.Scale
	width := b.Width * s

	dc.SetColor(parseHexColor(b.Color, color.Black))
	dc.SetLineWidth(width)
	switch b.Style {
	case layout.BorderDashed:
		dc.SetDash(6*s, 4*s)
	case layout.BorderDotted:
		dc.SetDash(width, width*2)
	default:
		dc.SetDash()
	}

	if radius > 0 {
		dc.DrawRoundedRectangle(x, y, w, h, radius)
	} else {
		dc.DrawRectangle(x, y, w, h)
	}
	dc.Stroke()
	dc.SetDash()
}

func (r *Rasterizer) drawTextBlock(dc *gg.Context, tb *layout.TextBlock, c *content.PageContent) {
	text := content.ResolveText(tb, c)
	if text == "" {
		return
	}

	s := r.opts.Scale
	bx, by := tb.X*s, tb.Y*s
	bw, bh := tb.Width*s, tb.Height*s
	if bw <= 0 {
		return
	}

	face, err := r.fonts.Face(tb.FontFamily, tb.FontWeight, tb.FontSize*s)
	if err != nil {
		r.logger.Warn("text block skipped", "block", tb.ID, "err", err)
		return
	}

	// Upward anchor shift compensates the baseline/line-height gap
	// between the live layout engine and this rasterizer. It composes
	// with the rotation transform below (translation happens in the
	// rotated frame, like an appended CSS translateY).
	yshift := math.Round(tb.FontSize*r.opts.ShiftRatio) * s

	// Descender guard below the last line, proportional to font size and
	// independent of the shift.
	pad := DefaultBottomPad * tb.FontSize / 16 * s

	lineSpacing := 1.2
	if tb.LineHeight > 0 && tb.FontSize > 0 {
		lineSpacing = tb.LineHeight / tb.FontSize
	}

	dc.Push()
	if tb.Rotate != 0 {
		dc.RotateAbout(gg.Radians(tb.Rotate), bx+bw/2, by+bh/2)
	}

	if bh > 0 {
		// Clip to the block extended by the shift above and the
		// descender guard below, so glyphs are never cut mid-stroke.
		dc.DrawRectangle(bx, by-yshift, bw, bh+yshift+pad)
		dc.Clip()
	}

	dc.SetFontFace(face)
	dc.SetColor(parseHexColor(tb.Color, color.Black))

	tracking := tb.LetterSpacing * s
	if tracking != 0 {
		r.drawTracked(dc, text, bx, by-yshift, bw, lineSpacing, tracking, tb.Align)
	} else {
		dc.DrawStringWrapped(text, bx, by-yshift, 0, 0, bw, lineSpacing, ggAlign(tb.Align))
	}

	if bh > 0 {
		dc.ResetClip()
	}
	dc.Pop()
}

// drawTracked draws wrapped text with letter spacing, one rune at a time.
// Wrapping ignores tracking, which matches how the editor's layout engine
// breaks lines before applying letter-spacing.
func (r *Rasterizer) drawTracked(dc *gg.Context, text string, x, y, w, lineSpacing, tracking float64, align layout.Align) {
	lines := dc.WordWrap(text, w)
	lineHeight := dc.FontHeight() * lineSpacing

	for i, line := range lines {
		runes := []rune(line)
		total := 0.0
		for _, rn := range runes {
			rw, _ := dc.MeasureString(string(rn))
			total += rw
		}
		if len(runes) > 1 {
			total += tracking * float64(len(runes)-1)
		}

		cx := x
		switch align {
		case layout.AlignCenter:
			cx = x + (w-total)/2
		case layout.AlignRight:
			cx = x + w - total
		}

		baseline := y + dc.FontHeight() + float64(i)*lineHeight
		for _, rn := range runes {
			dc.DrawString(string(rn), cx, baseline)
			rw, _ := dc.MeasureString(string(rn))
			cx += rw + tracking
		}
	}
}

func ggAlign(a layout.Align) gg.Align {
	switch a {
	case layout.AlignCenter:
		return gg.AlignCenter
	case layout.AlignRight:
		return gg.AlignRight
	default:
		return gg.AlignLeft
	}
}

// parseHexColor parses #RGB, #RRGGBB, and #RRGGBBAA. Unparsable values
// return the fallback.
func parseHexColor(s string, fallback color.Color) color.Color {
	if len(s) == 0 || s[0] != '#' {
		return fallback
	}
	hex := s[1:]

	var r, g, b, a uint8 = 0, 0, 0, 255
	switch len(hex) {
	case 3:
		r = dupNibble(hexVal(hex[0]))
		g = dupNibble(hexVal(hex[1]))
		b = dupNibble(hexVal(hex[2]))
	case 6, 8:
		r = hexVal(hex[0])<<4 | hexVal(hex[1])
		g = hexVal(hex[2])<<4 | hexVal(hex[3])
		b = hexVal(hex[4])<<4 | hexVal(hex[5])
		if len(hex) == 8 {
			a = hexVal(hex[6])<<4 | hexVal(hex[7])
		}
	default:
		return fallback
	}
	for _, ch := range hex {
		if !isHexDigit(byte(ch)) {
			return fallback
		}
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

func hexVal(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func dupNibble(n uint8) uint8 { return n<<4 | n }

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
