package cache

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"
)

// FileCache keeps rendered page rasters and assembled artifacts on local
// disk, for CLI runs and single-host servers.
//
// Payloads are opaque binary blobs (PNG, PDF, MP4) stored raw behind a
// fixed-size header carrying a magic marker and the expiry time. Writes go
// through a temp file and a rename, so parallel capture workers never
// observe a half-written raster.
type FileCache struct {
	dir string
}

// entryMagic marks a well-formed cache entry. Files without it are
// treated as misses and removed.
const entryMagic = "MPC1"

// headerSize is the magic marker plus a big-endian unix expiry.
// A zero expiry means the entry never expires.
const headerSize = len(entryMagic) + 8

// NewFileCache creates a file cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Get retrieves an entry. Corrupt or expired entries are removed and
// reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if len(raw) < headerSize || string(raw[:len(entryMagic)]) != entryMagic {
		_ = os.Remove(path)
		return nil, false, nil
	}
	expiry := int64(binary.BigEndian.Uint64(raw[len(entryMagic):headerSize]))
	if expiry != 0 && time.Now().Unix() > expiry {
		_ = os.Remove(path)
		return nil, false, nil
	}

	return raw[headerSize:], true, nil
}

// Set stores an entry. The header and payload land in a temp file that is
// renamed into place, so readers see either the old entry or the new one.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	entry := make([]byte, headerSize, headerSize+len(data))
	copy(entry, entryMagic)
	if ttl != 0 {
		binary.BigEndian.PutUint64(entry[len(entryMagic):], uint64(time.Now().Add(ttl).Unix()))
	}
	entry = append(entry, data...)

	tmp, err := os.CreateTemp(c.dir, ".write-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(entry); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Delete removes an entry. Deleting a missing key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close is a no-op; entries live on disk.
func (c *FileCache) Close() error {
	return nil
}

// path shards entries by the key hash so one directory never holds every
// raster.
func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:]+".blob")
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
