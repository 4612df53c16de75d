// Package storage persists finished export artifacts.
//
// Artifacts are write-once: a key is never overwritten, so a published
// location always refers to the same bytes. Keys embed the owning identity
// and a millisecond timestamp, which keeps concurrent exports from the
// same user from colliding.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/magpress/magpress/pkg/export"
)

// Storage is a write-once artifact store.
type Storage interface {
	// Put stores the reader's bytes under key and returns the artifact's
	// final location (a path or URL a client can retrieve). Writing to an
	// existing key fails with ErrCodeKeyExists.
	Put(ctx context.Context, key string, r io.Reader) (string, error)

	// Exists reports whether a key is already taken.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases resources held by the backend.
	Close() error
}

// ObjectKey builds the storage key for an artifact:
// "<identity>/<unix-ms>_<filename>", with the identity sanitized the same
// way as file names.
func ObjectKey(identity, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", export.Sanitize(identity), now.UnixMilli(), filename)
}
