package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateBlockID validates a block identifier for safety and correctness.
// Block IDs key user content across editing sessions, so they must be
// simple, stable strings.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - No path separators (IDs appear in cache keys and file names)
//   - Maximum length of 128 characters
func ValidateBlockID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidLayout, "block id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidLayout, "block id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLayout, "block id contains control characters")
		}
	}

	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidLayout, "block id cannot contain path separators")
	}

	return nil
}

// ValidateTemplateName validates a template name used in output file naming
// and export log entries.
func ValidateTemplateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "template name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "template name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "template name contains control characters")
		}
	}

	return nil
}

// ValidateAssetURL validates an image asset URL. Assets must be fetchable
// over plain HTTP(S) without authentication at render time.
func ValidateAssetURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidInput, "asset url cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid asset url %q", raw)
	}

	switch u.Scheme {
	case "http", "https":
		return nil
	default:
		return New(ErrCodeInvalidInput, "asset url must use http or https, got %q", u.Scheme)
	}
}
