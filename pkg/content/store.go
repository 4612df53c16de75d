package content

import (
	"context"
	"sync"

	"github.com/magpress/magpress/pkg/layout"
)

// Store persists layouts and page content keyed by (template ID, page
// number, block ID). The rendering pipeline needs read access to layouts
// and read/write access to page content; it never mutates a layout.
type Store interface {
	// GetLayout returns the layout for a template page, or nil if the
	// page does not exist.
	GetLayout(ctx context.Context, templateID string, page int) (*layout.Layout, error)

	// PutLayout stores a layout for a template page. Used by the
	// authoring step only.
	PutLayout(ctx context.Context, templateID string, page int, l *layout.Layout) error

	// GetContent returns the page content for a template page. A page
	// with no recorded edits returns empty content, not nil.
	GetContent(ctx context.Context, templateID string, page int) (*PageContent, error)

	// PutContent stores page content for a template page.
	PutContent(ctx context.Context, templateID string, page int, c *PageContent) error

	// Close releases store resources.
	Close(ctx context.Context) error
}

type pageKey struct {
	template string
	page     int
}

// MemoryStore is an in-process Store for tests and single-user CLI runs.
type MemoryStore struct {
	mu       sync.RWMutex
	layouts  map[pageKey]*layout.Layout
	contents map[pageKey]*PageContent
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		layouts:  make(map[pageKey]*layout.Layout),
		contents: make(map[pageKey]*PageContent),
	}
}

// GetLayout implements Store.
func (s *MemoryStore) GetLayout(ctx context.Context, templateID string, page int) (*layout.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layouts[pageKey{templateID, page}], nil
}

// PutLayout implements Store.
func (s *MemoryStore) PutLayout(ctx context.Context, templateID string, page int, l *layout.Layout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts[pageKey{templateID, page}] = l
	return nil
}

// GetContent implements Store.
func (s *MemoryStore) GetContent(ctx context.Context, templateID string, page int) (*PageContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.contents[pageKey{templateID, page}]; ok {
		return c.Snapshot(), nil
	}
	return NewPageContent(), nil
}

// PutContent implements Store.
func (s *MemoryStore) PutContent(ctx context.Context, templateID string, page int, c *PageContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents[pageKey{templateID, page}] = c.Snapshot()
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
