package store

import "orcus/pkg/domain"

// Store defines persistence operations for books, download events, and settings.
type Store interface {
	// books
	SaveBook(domain.Book) error
	GetBook(id string) (domain.Book, bool, error)
	// ListRecentBooks returns the newest approved books, newest first.
	ListRecentBooks(limit int) ([]domain.BookSummary, error)
	// SearchBooks matches approved books whose title, author, or tags contain
	// the query as a literal, case-insensitive substring, newest first.
	SearchBooks(query string, limit int) ([]domain.BookSummary, error)

	// download events (append-only)
	RecordDownload(domain.DownloadEvent) error

	// settings
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}
