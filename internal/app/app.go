package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"orcus/internal/token"
	"orcus/internal/util"
	"orcus/pkg/auth"
	"orcus/pkg/domain"
	"orcus/pkg/storage"
	"orcus/pkg/store"
)

const (
	// AdScriptKey names the setting holding the injectable ad script.
	AdScriptKey = "ad_script"

	recentLimit = 50
	searchLimit = 100
	maxIPLength = 45
)

// Config holds the dependencies of the core application.
type Config struct {
	Store         store.Store
	Objects       storage.ObjectStore
	Tokens        *token.Manager
	AdminPassword string
}

// App wires the catalog, download log, settings, and admin gate together.
type App struct {
	store         store.Store
	objects       storage.ObjectStore
	tokens        *token.Manager
	adminPassword string
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Objects == nil {
		return nil, errors.New("object store is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token manager is required")
	}
	if strings.TrimSpace(cfg.AdminPassword) == "" {
		return nil, errors.New("admin password is required")
	}
	return &App{
		store:         cfg.Store,
		objects:       cfg.Objects,
		tokens:        cfg.Tokens,
		adminPassword: cfg.AdminPassword,
	}, nil
}

// CreateBookInput carries metadata for a new catalog entry.
type CreateBookInput struct {
	Title       string
	Author      string
	Description string
	Tags        string
	Link        string
}

// CreateFromLink catalogs a book backed by an external link.
// Entries are approved at creation; there is no moderation path.
func (a *App) CreateFromLink(in CreateBookInput) (domain.Book, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Book{}, ErrTitleRequired
	}
	book := domain.Book{
		ID:          util.NewID(),
		Title:       in.Title,
		Author:      in.Author,
		Description: in.Description,
		Tags:        in.Tags,
		Link:        in.Link,
		IsApproved:  true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.SaveBook(book); err != nil {
		return domain.Book{}, fmt.Errorf("save book: %w", err)
	}
	return book, nil
}

// CreateFromUpload stores the uploaded file under a generated opaque name and
// catalogs a book referencing it. The title defaults to the original filename.
func (a *App) CreateFromUpload(ctx context.Context, filename string, r io.Reader, size int64, in CreateBookInput) (domain.Book, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return domain.Book{}, ErrFileRequired
	}
	ext := strings.ToLower(filepath.Ext(filename))
	key := util.NewID() + ext

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = filename
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := a.objects.Put(ctx, key, r, size, contentType); err != nil {
		return domain.Book{}, fmt.Errorf("save file: %w", err)
	}
	book := domain.Book{
		ID:          util.NewID(),
		Title:       title,
		Author:      in.Author,
		Description: in.Description,
		Tags:        in.Tags,
		File:        key,
		IsApproved:  true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.SaveBook(book); err != nil {
		_ = a.objects.Delete(ctx, key)
		return domain.Book{}, fmt.Errorf("save book: %w", err)
	}
	return book, nil
}

// Search returns approved books, newest first: the 50 most recent for an
// empty query, otherwise up to 100 literal-substring matches.
func (a *App) Search(query string) ([]domain.BookSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return a.store.ListRecentBooks(recentLimit)
	}
	return a.store.SearchBooks(query, searchLimit)
}

// GetBook returns the full record for one book.
func (a *App) GetBook(id string) (domain.Book, error) {
	book, ok, err := a.store.GetBook(id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("get book: %w", err)
	}
	if !ok {
		return domain.Book{}, ErrBookNotFound
	}
	return book, nil
}

// RequestContext carries the caller metadata recorded with each retrieval.
type RequestContext struct {
	IP        string
	UserAgent string
	Referrer  string
}

// FileDownload is a streamed file resolution. The caller closes Content.
type FileDownload struct {
	Content     io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// Resolution is the outcome of a retrieval: exactly one of File or
// RedirectURL is set.
type Resolution struct {
	File        *FileDownload
	RedirectURL string
}

// Retrieve resolves a book into a file stream or a redirect target. The
// download event is recorded before the payload is resolved, so attempted
// accesses count even when resolution fails afterwards.
func (a *App) Retrieve(ctx context.Context, id string, rc RequestContext) (Resolution, error) {
	book, ok, err := a.store.GetBook(id)
	if err != nil {
		return Resolution{}, fmt.Errorf("get book: %w", err)
	}
	if !ok {
		return Resolution{}, ErrBookNotFound
	}
	event := domain.DownloadEvent{
		ID:         util.NewID(),
		BookID:     book.ID,
		IP:         truncateIP(rc.IP),
		UserAgent:  rc.UserAgent,
		Referrer:   rc.Referrer,
		OccurredAt: time.Now().UTC(),
	}
	if err := a.store.RecordDownload(event); err != nil {
		return Resolution{}, fmt.Errorf("record download: %w", err)
	}
	switch payload := book.Payload(); payload.Kind {
	case domain.PayloadFile:
		content, info, err := a.objects.Get(ctx, payload.File)
		if err != nil {
			return Resolution{}, fmt.Errorf("open stored file: %w", err)
		}
		return Resolution{File: &FileDownload{
			Content:     content,
			Filename:    book.Title + strings.ToLower(filepath.Ext(payload.File)),
			ContentType: info.ContentType,
			Size:        info.Size,
		}}, nil
	case domain.PayloadLink:
		return Resolution{RedirectURL: payload.Link}, nil
	default:
		return Resolution{}, ErrNoFileOrLink
	}
}

// AdminLogin exchanges the admin password for a bearer token.
func (a *App) AdminLogin(password string) (string, error) {
	if !auth.CheckPassword(password, a.adminPassword) {
		return "", ErrInvalidCredentials
	}
	tok, err := a.tokens.Issue()
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

// VerifyAdminToken checks that the token grants the admin capability.
func (a *App) VerifyAdminToken(tok string) error {
	if _, err := a.tokens.Verify(tok); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// AdScript returns the configured ad script, or "" when unset.
func (a *App) AdScript() (string, error) {
	value, err := a.store.GetSetting(AdScriptKey)
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetAdScript replaces the configured ad script.
func (a *App) SetAdScript(script string) error {
	if err := a.store.SetSetting(AdScriptKey, script); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

func truncateIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if len(ip) > maxIPLength {
		return ip[:maxIPLength]
	}
	return ip
}
