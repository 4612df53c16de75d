package raster

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/fonts"
)

// boldWeight is the CSS numeric weight at which the bold variant is used.
const boldWeight = 600

type fontKey struct {
	family string
	bold   bool
}

type faceKey struct {
	family string
	bold   bool
	size   float64
}

// FontRegistry resolves font families to parsed fonts and caches rendering
// faces per (family, weight, size). All fonts are parsed before any text
// metric is sampled, so text is never measured with a half-loaded face.
//
// Resolution order: system fonts located via findfont, then the built-in
// fallback family. Families outside the allow-list (when one is set) go
// straight to the fallback.
type FontRegistry struct {
	mu      sync.Mutex
	allowed map[string]bool // nil means every family is allowed
	parsed  map[fontKey]*truetype.Font
	faces   map[faceKey]font.Face
}

// NewFontRegistry creates a registry. allowed lists permitted family names
// (case-insensitive); empty means no restriction.
func NewFontRegistry(allowed []string) *FontRegistry {
	r := &FontRegistry{
		parsed: make(map[fontKey]*truetype.Font),
		faces:  make(map[faceKey]font.Face),
	}
	if len(allowed) > 0 {
		r.allowed = make(map[string]bool, len(allowed)+1)
		for _, f := range allowed {
			r.allowed[strings.ToLower(strings.TrimSpace(f))] = true
		}
		r.allowed[strings.ToLower(fonts.FallbackFamily)] = true
	}
	return r
}

// Preload resolves and parses every (family, weight) pair up front. Call
// before rendering so capture never samples metrics mid-load. Families
// that cannot be resolved fall back silently; Preload only fails if even
// the built-in fallback cannot be parsed.
func (r *FontRegistry) Preload(blocks []FontRequest) error {
	for _, b := range blocks {
		if _, err := r.font(b.Family, b.Bold); err != nil {
			return err
		}
	}
	return nil
}

// FontRequest names one (family, weight) pair used by a layout.
type FontRequest struct {
	Family string
	Bold   bool
}

// Face returns a cached rendering face for the family at the given device
// pixel size. weight is the CSS numeric weight string ("400", "700", ...);
// unparsable weights are treated as regular.
func (r *FontRegistry) Face(family, weight string, size float64) (font.Face, error) {
	bold := IsBoldWeight(weight)

	r.mu.Lock()
	defer r.mu.Unlock()

	key := faceKey{strings.ToLower(family), bold, size}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}

	tf, err := r.fontLocked(family, bold)
	if err != nil {
		return nil, err
	}

	face := truetype.NewFace(tf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	r.faces[key] = face
	return face, nil
}

// IsBoldWeight reports whether a CSS numeric weight string selects the
// bold variant.
func IsBoldWeight(weight string) bool {
	if w, err := strconv.Atoi(strings.TrimSpace(weight)); err == nil {
		return w >= boldWeight
	}
	return strings.EqualFold(weight, "bold")
}

func (r *FontRegistry) font(family string, bold bool) (*truetype.Font, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fontLocked(family, bold)
}

func (r *FontRegistry) fontLocked(family string, bold bool) (*truetype.Font, error) {
	key := fontKey{strings.ToLower(family), bold}
	if f, ok := r.parsed[key]; ok {
		return f, nil
	}

	f := r.resolveLocked(family, bold)
	if f == nil {
		var err error
		if bold {
			f, err = fonts.BoldFont()
		} else {
			f, err = fonts.RegularFont()
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFontLoad, err, "parse fallback font")
		}
	}
	r.parsed[key] = f
	return f, nil
}

// resolveLocked looks the family up among system fonts. Returns nil when
// the family is not allowed, not installed, or not parseable.
func (r *FontRegistry) resolveLocked(family string, bold bool) *truetype.Font {
	family = strings.TrimSpace(family)
	if family == "" {
		return nil
	}
	if r.allowed != nil && !r.allowed[strings.ToLower(family)] {
		return nil
	}

	names := candidateNames(family, bold)
	for _, name := range names {
		path, err := findfont.Find(name)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := truetype.Parse(data)
		if err != nil {
			continue
		}
		return f
	}
	return nil
}

// candidateNames builds filename candidates for findfont, most specific
// first. findfont matches case-insensitive substrings of font file names.
func candidateNames(family string, bold bool) []string {
	compact := strings.ReplaceAll(family, " ", "")
	var names []string
	if bold {
		names = append(names,
			fmt.Sprintf("%s-Bold.ttf", compact),
			fmt.Sprintf("%s Bold.ttf", family),
			fmt.Sprintf("%sBold", compact),
		)
	}
	names = append(names,
		fmt.Sprintf("%s-Regular.ttf", compact),
		fmt.Sprintf("%s.ttf", compact),
		family,
	)
	return names
}
