// Package export assembles rasterized pages into deliverable artifacts:
// a paginated PDF, an encoded MP4 video, or a set of per-page JPEGs.
package export

import (
	"fmt"
	"strings"
)

// Kind identifies an export target.
type Kind string

// Supported export kinds.
const (
	KindImages Kind = "images"
	KindPDF    Kind = "pdf"
	KindVideo  Kind = "video"
)

// Valid reports whether k names a supported export kind.
func (k Kind) Valid() bool {
	switch k {
	case KindImages, KindPDF, KindVideo:
		return true
	}
	return false
}

// Ext returns the artifact file extension for the kind.
func (k Kind) Ext() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindVideo:
		return "mp4"
	default:
		return "jpg"
	}
}

// Sanitize lowercases s and replaces every non-alphanumeric character
// with an underscore, making it safe for file names and storage keys.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// FileName builds the artifact file name for an export:
// "<identity>_<template>_magazine.<ext>", with video keeping its
// historical "_magazine_video.mp4" suffix.
func FileName(identity, template string, kind Kind) string {
	base := Sanitize(identity) + "_" + Sanitize(template)
	switch kind {
	case KindVideo:
		return base + "_magazine_video.mp4"
	case KindPDF:
		return base + "_magazine.pdf"
	default:
		return base + "_magazine.jpg"
	}
}

// PageFileName builds the per-page file name used by image-set exports.
func PageFileName(identity, template string, page int) string {
	return fmt.Sprintf("%s_%s_magazine_page_%d.jpg", Sanitize(identity), Sanitize(template), page)
}
