package domain

import "time"

// PayloadKind tags the deliverable form of a book.
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadFile
	PayloadLink
)

// Payload is the tagged deliverable of a book: a stored object, an external
// link, or nothing. "Nothing" is representable on purpose so retrieval can
// reject it explicitly instead of falling through.
type Payload struct {
	Kind PayloadKind
	File string
	Link string
}

type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        string    `json:"tags,omitempty"`
	Link        string    `json:"link,omitempty"`
	File        string    `json:"file,omitempty"`
	IsApproved  bool      `json:"isApproved"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Payload returns the book's deliverable. A stored file wins over a link when
// both are present.
func (b Book) Payload() Payload {
	switch {
	case b.File != "":
		return Payload{Kind: PayloadFile, File: b.File}
	case b.Link != "":
		return Payload{Kind: PayloadLink, Link: b.Link}
	default:
		return Payload{Kind: PayloadNone}
	}
}

// BookSummary is the public projection returned by search.
type BookSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Link        string `json:"link,omitempty"`
	File        string `json:"file,omitempty"`
}

// Summary strips a book down to its public projection.
func (b Book) Summary() BookSummary {
	return BookSummary{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Tags:        b.Tags,
		Link:        b.Link,
		File:        b.File,
	}
}

// DownloadEvent records one retrieval attempt against a book.
type DownloadEvent struct {
	ID         string    `json:"id"`
	BookID     string    `json:"bookId"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"userAgent,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
