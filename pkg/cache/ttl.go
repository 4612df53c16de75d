package cache

import "time"

// Default TTLs per entry type.
//
// Page rasters are invalidated by key (any layout, content, or option
// change produces a new key), so the TTL only bounds storage growth.
const (
	// TTLPage is the lifetime of cached page rasters.
	TTLPage = 24 * time.Hour

	// TTLArtifact is the lifetime of cached assembled artifacts.
	TTLArtifact = 7 * 24 * time.Hour
)
