package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/magpress/magpress/pkg/errors"
)

// LocalStorage stores artifacts under a directory tree, one file per key.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates a local store rooted at dir, creating it if
// needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodePublish, err, "create storage root")
	}
	return &LocalStorage{root: dir}, nil
}

// Put writes the artifact to disk. The write goes to a temp file first and
// is linked into place, so a crash never leaves a partial artifact under a
// valid key and an existing key is never replaced.
func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeCancelled, err, "put %s", key)
	}

	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", errors.New(errors.ErrCodeKeyExists, "artifact already exists: %s", key)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodePublish, err, "create artifact dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodePublish, err, "stage artifact")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", errors.Wrap(errors.ErrCodePublish, err, "write artifact %s", key)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodePublish, err, "write artifact %s", key)
	}

	// Link fails if the destination appeared meanwhile, keeping the
	// no-overwrite guarantee under concurrency.
	if err := os.Link(tmp.Name(), path); err != nil {
		if os.IsExist(err) {
			return "", errors.New(errors.ErrCodeKeyExists, "artifact already exists: %s", key)
		}
		return "", errors.Wrap(errors.ErrCodePublish, err, "publish artifact %s", key)
	}
	return path, nil
}

// Exists reports whether the key already holds an artifact.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.ErrCodePublish, err, "stat %s", key)
	}
	return true, nil
}

// Close does nothing for local storage.
func (s *LocalStorage) Close() error { return nil }

// path maps a key to a file path, rejecting traversal out of the root.
func (s *LocalStorage) path(key string) (string, error) {
	if key == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "empty storage key")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", errors.New(errors.ErrCodeInvalidInput, "storage key escapes root: %s", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Ensure LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)
