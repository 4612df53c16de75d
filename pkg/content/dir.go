package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/layout"
)

// DirStore reads layouts and page content from a directory tree, one
// subdirectory per template:
//
//	<root>/<template>/page_1.json      layout for page 1
//	<root>/<template>/content_1.json   user content for page 1 (optional)
//
// This is the store CLI commands use against exported template folders.
type DirStore struct {
	root string
}

// NewDirStore creates a store rooted at dir.
func NewDirStore(dir string) (*DirStore, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "template dir %s", dir)
	}
	if !fi.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s is not a directory", dir)
	}
	return &DirStore{root: dir}, nil
}

func (s *DirStore) layoutPath(templateID string, page int) string {
	return filepath.Join(s.root, templateID, fmt.Sprintf("page_%d.json", page))
}

func (s *DirStore) contentPath(templateID string, page int) string {
	return filepath.Join(s.root, templateID, fmt.Sprintf("content_%d.json", page))
}

// GetLayout reads a page layout. A missing file is (nil, nil).
func (s *DirStore) GetLayout(ctx context.Context, templateID string, page int) (*layout.Layout, error) {
	f, err := os.Open(s.layoutPath(templateID, page))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read layout")
	}
	defer f.Close()
	return layout.Read(f)
}

// PutLayout writes a page layout, creating the template directory.
func (s *DirStore) PutLayout(ctx context.Context, templateID string, page int, l *layout.Layout) error {
	data, err := layout.Marshal(l)
	if err != nil {
		return err
	}
	path := s.layoutPath(templateID, page)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create template dir")
	}
	return os.WriteFile(path, data, 0644)
}

// GetContent reads page content. A missing file is empty content.
func (s *DirStore) GetContent(ctx context.Context, templateID string, page int) (*PageContent, error) {
	data, err := os.ReadFile(s.contentPath(templateID, page))
	if os.IsNotExist(err) {
		return NewPageContent(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read content")
	}
	c := NewPageContent()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse content")
	}
	return c, nil
}

// PutContent writes page content.
func (s *DirStore) PutContent(ctx context.Context, templateID string, page int, c *PageContent) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal content")
	}
	path := s.contentPath(templateID, page)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create template dir")
	}
	return os.WriteFile(path, data, 0644)
}

// Pages lists the page numbers with a stored layout, ascending.
func (s *DirStore) Pages(templateID string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, templateID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list template pages")
	}

	var pages []int
	for _, e := range entries {
		var p int
		if n, _ := fmt.Sscanf(e.Name(), "page_%d.json", &p); n == 1 {
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages, nil
}

// Close does nothing for directory stores.
func (s *DirStore) Close(ctx context.Context) error { return nil }

var _ Store = (*DirStore)(nil)
