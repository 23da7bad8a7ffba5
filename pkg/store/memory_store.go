package store

import (
	"sort"
	"strings"
	"sync"

	"orcus/pkg/domain"
)

// MemoryStore keeps catalog state in-process. Used by tests and local runs
// without Postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	books    map[string]domain.Book
	orders   []string
	events   []domain.DownloadEvent
	settings map[string]string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:    make(map[string]domain.Book),
		settings: make(map[string]string),
	}
}

// SaveBook stores or replaces a book record and tracks insertion order.
func (m *MemoryStore) SaveBook(b domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.books[b.ID]; !exists {
		m.orders = append(m.orders, b.ID)
	}
	m.books[b.ID] = b
	return nil
}

// GetBook retrieves a book by ID.
func (m *MemoryStore) GetBook(id string) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	return b, ok, nil
}

// ListRecentBooks returns approved books, newest first.
func (m *MemoryStore) ListRecentBooks(limit int) ([]domain.BookSummary, error) {
	return m.collect(limit, func(domain.Book) bool { return true })
}

// SearchBooks matches approved books on title/author/tags as a literal
// case-insensitive substring.
func (m *MemoryStore) SearchBooks(query string, limit int) ([]domain.BookSummary, error) {
	q := strings.ToLower(query)
	return m.collect(limit, func(b domain.Book) bool {
		return strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(b.Tags), q)
	})
}

func (m *MemoryStore) collect(limit int, match func(domain.Book) bool) ([]domain.BookSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	picked := make([]domain.Book, 0, len(m.orders))
	for _, id := range m.orders {
		b, ok := m.books[id]
		if !ok || !b.IsApproved || !match(b) {
			continue
		}
		picked = append(picked, b)
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].CreatedAt.After(picked[j].CreatedAt)
	})
	if limit > 0 && len(picked) > limit {
		picked = picked[:limit]
	}
	res := make([]domain.BookSummary, 0, len(picked))
	for _, b := range picked {
		res = append(res, b.Summary())
	}
	return res, nil
}

// RecordDownload appends one download event.
func (m *MemoryStore) RecordDownload(e domain.DownloadEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// Downloads returns recorded events for a book. Test helper.
func (m *MemoryStore) Downloads(bookID string) []domain.DownloadEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.DownloadEvent, 0)
	for _, e := range m.events {
		if e.BookID == bookID {
			res = append(res, e)
		}
	}
	return res
}

// GetSetting returns the stored value or "" when the key is absent.
func (m *MemoryStore) GetSetting(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

// SetSetting upserts a setting.
func (m *MemoryStore) SetSetting(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}
