// Package cache provides pluggable byte caches for rendered page rasters
// and assembled artifacts, plus deterministic key derivation.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with TTL support.
//
// Implementations must treat a missing key as (nil, false, nil), never as
// an error: a miss is a normal outcome.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer derives cache keys from render and export inputs.
type Keyer interface {
	// PageKey identifies one rendered page raster: the layout, the
	// resolved content, and the render options that shaped the pixels.
	PageKey(layoutHash, contentHash string, opts PageKeyOpts) string

	// ArtifactKey identifies one assembled artifact over a set of page
	// rasters.
	ArtifactKey(pagesHash string, opts ArtifactKeyOpts) string
}

// PageKeyOpts are the render options that affect page pixels.
type PageKeyOpts struct {
	Scale      float64 `json:"scale"`
	ShiftRatio float64 `json:"shift_ratio"`
}

// ArtifactKeyOpts are the assembly options that affect artifact bytes.
type ArtifactKeyOpts struct {
	Kind    string `json:"kind"`
	Quality int    `json:"quality,omitempty"`
	FPS     int    `json:"fps,omitempty"`
}

// DefaultKeyer derives keys by hashing the option structs, so any option
// change produces a distinct key.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// PageKey generates a key for page raster caching.
func (k *DefaultKeyer) PageKey(layoutHash, contentHash string, opts PageKeyOpts) string {
	return hashKey("page", layoutHash, contentHash, opts)
}

// ArtifactKey generates a key for artifact caching.
func (k *DefaultKeyer) ArtifactKey(pagesHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", pagesHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
