// Package fonts provides the built-in fallback fonts for page rendering.
//
// The Go font family ships inside golang.org/x/image, so the fallback is
// always available without external font files. Template fonts resolve
// against system fonts first (see the raster package); these bytes are the
// guaranteed last resort so text is never drawn with unmeasured metrics.
package fonts

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FallbackFamily is the family name reported for the built-in fallback.
const FallbackFamily = "Go"

// Regular returns the TTF bytes of the regular fallback face.
func Regular() []byte { return goregular.TTF }

// Bold returns the TTF bytes of the bold fallback face.
func Bold() []byte { return gobold.TTF }

var (
	regularOnce sync.Once
	regularFont *truetype.Font
	regularErr  error

	boldOnce sync.Once
	boldFont *truetype.Font
	boldErr  error
)

// RegularFont returns the parsed regular fallback font. Parsing happens
// once; the result is cached for the process lifetime.
func RegularFont() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = truetype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// BoldFont returns the parsed bold fallback font.
func BoldFont() (*truetype.Font, error) {
	boldOnce.Do(func() {
		boldFont, boldErr = truetype.Parse(gobold.TTF)
	})
	return boldFont, boldErr
}
