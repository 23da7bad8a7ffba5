package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"orcus/internal/token"
	"orcus/pkg/storage"
	"orcus/pkg/store"
)

func newTestApp(t *testing.T) (*App, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	objects, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}
	tokens, err := token.NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	a, err := New(Config{
		Store:         mem,
		Objects:       objects,
		Tokens:        tokens,
		AdminPassword: "hunter2",
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, mem
}

func TestCreateFromLinkRequiresTitle(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.CreateFromLink(CreateBookInput{Link: "https://x/doc.pdf"})
	if !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
	_, err = a.CreateFromLink(CreateBookInput{Title: "   ", Link: "https://x/doc.pdf"})
	if !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired for blank title, got %v", err)
	}
}

func TestCreateFromLinkIsImmediatelySearchable(t *testing.T) {
	a, _ := newTestApp(t)
	book, err := a.CreateFromLink(CreateBookInput{Title: "Report", Link: "https://x/doc.pdf"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if book.ID == "" || !book.IsApproved {
		t.Fatalf("expected approved book with id, got %+v", book)
	}

	res, err := a.Search("report")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 || res[0].ID != book.ID {
		t.Fatalf("expected new book in search results, got %+v", res)
	}

	empty, err := a.Search("zzz")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no matches, got %+v", empty)
	}
}

func TestCreateFromUploadDefaultsTitleToFilename(t *testing.T) {
	a, _ := newTestApp(t)
	book, err := a.CreateFromUpload(context.Background(), "paper.pdf", strings.NewReader("%PDF-"), 5, CreateBookInput{})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if book.Title != "paper.pdf" {
		t.Fatalf("expected title from filename, got %q", book.Title)
	}
	if book.File == "" || book.File == "paper.pdf" {
		t.Fatalf("expected generated opaque file key, got %q", book.File)
	}
	if !strings.HasSuffix(book.File, ".pdf") {
		t.Fatalf("expected file key to keep extension, got %q", book.File)
	}
}

func TestCreateFromUploadRejectsMissingFilename(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.CreateFromUpload(context.Background(), "  ", strings.NewReader("x"), 1, CreateBookInput{})
	if !errors.Is(err, ErrFileRequired) {
		t.Fatalf("expected ErrFileRequired, got %v", err)
	}
}

func TestRetrieveLinkBookRedirectsAndLogs(t *testing.T) {
	a, mem := newTestApp(t)
	book, err := a.CreateFromLink(CreateBookInput{Title: "Report", Link: "https://x/doc.pdf"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := a.Retrieve(context.Background(), book.ID, RequestContext{IP: "203.0.113.5", UserAgent: "ua", Referrer: "ref"})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if res.File != nil {
		t.Fatalf("link book must not resolve to a file")
	}
	if res.RedirectURL != "https://x/doc.pdf" {
		t.Fatalf("expected verbatim redirect, got %q", res.RedirectURL)
	}

	events := mem.Downloads(book.ID)
	if len(events) != 1 {
		t.Fatalf("expected exactly one download event, got %d", len(events))
	}
	e := events[0]
	if e.IP != "203.0.113.5" || e.UserAgent != "ua" || e.Referrer != "ref" {
		t.Fatalf("unexpected event fields: %+v", e)
	}
}

func TestRetrieveFileBookStreamsContent(t *testing.T) {
	a, mem := newTestApp(t)
	book, err := a.CreateFromUpload(context.Background(), "paper.pdf", strings.NewReader("file-bytes"), 10, CreateBookInput{Title: "My Paper"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	res, err := a.Retrieve(context.Background(), book.ID, RequestContext{IP: "203.0.113.5"})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if res.RedirectURL != "" {
		t.Fatalf("file book must never redirect, got %q", res.RedirectURL)
	}
	if res.File == nil {
		t.Fatalf("expected file resolution")
	}
	defer res.File.Content.Close()
	data, err := io.ReadAll(res.File.Content)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "file-bytes" {
		t.Fatalf("unexpected content: %q", data)
	}
	if res.File.Filename != "My Paper.pdf" {
		t.Fatalf("expected suggested name from title plus extension, got %q", res.File.Filename)
	}
	if len(mem.Downloads(book.ID)) != 1 {
		t.Fatalf("expected one download event")
	}
}

func TestRetrieveWithoutPayloadFailsAfterLogging(t *testing.T) {
	a, mem := newTestApp(t)
	book, err := a.CreateFromLink(CreateBookInput{Title: "Bare"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = a.Retrieve(context.Background(), book.ID, RequestContext{IP: "203.0.113.5"})
	if !errors.Is(err, ErrNoFileOrLink) {
		t.Fatalf("expected ErrNoFileOrLink, got %v", err)
	}
	// the attempt is still counted
	if len(mem.Downloads(book.ID)) != 1 {
		t.Fatalf("expected the failed retrieval to be logged")
	}
}

func TestRetrieveUnknownBook(t *testing.T) {
	a, mem := newTestApp(t)
	_, err := a.Retrieve(context.Background(), "missing", RequestContext{})
	if !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
	if len(mem.Downloads("missing")) != 0 {
		t.Fatalf("unknown book must not produce events")
	}
}

func TestRetrieveTruncatesLongClientAddress(t *testing.T) {
	a, mem := newTestApp(t)
	book, err := a.CreateFromLink(CreateBookInput{Title: "Report", Link: "https://x/doc.pdf"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	long := strings.Repeat("a", 60)
	if _, err := a.Retrieve(context.Background(), book.ID, RequestContext{IP: long}); err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	events := mem.Downloads(book.ID)
	if len(events) != 1 {
		t.Fatalf("expected one event")
	}
	if got := len(events[0].IP); got != 45 {
		t.Fatalf("expected ip truncated to 45 chars, got %d", got)
	}
}

func TestAdminLoginAndTokenVerification(t *testing.T) {
	a, _ := newTestApp(t)
	if _, err := a.AdminLogin("wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	tok, err := a.AdminLogin("hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := a.VerifyAdminToken(tok); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := a.VerifyAdminToken(tok + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAdScriptRoundTrip(t *testing.T) {
	a, _ := newTestApp(t)
	v, err := a.AdScript()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "" {
		t.Fatalf("expected empty default, got %q", v)
	}
	if err := a.SetAdScript("<script>ads()</script>"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err = a.AdScript()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "<script>ads()</script>" {
		t.Fatalf("expected exact last-written value, got %q", v)
	}
}
