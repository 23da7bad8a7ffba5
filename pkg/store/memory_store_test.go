package store

import (
	"testing"
	"time"

	"orcus/pkg/domain"
)

func seedBook(t *testing.T, m *MemoryStore, b domain.Book) {
	t.Helper()
	if err := m.SaveBook(b); err != nil {
		t.Fatalf("save book: %v", err)
	}
}

func TestMemoryStoreSearchMatchesTitleAuthorTags(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedBook(t, m, domain.Book{ID: "1", Title: "Distributed Systems", IsApproved: true, CreatedAt: base})
	seedBook(t, m, domain.Book{ID: "2", Title: "Gardening", Author: "Ada Systems", IsApproved: true, CreatedAt: base.Add(time.Minute)})
	seedBook(t, m, domain.Book{ID: "3", Title: "Cooking", Tags: "systems,food", IsApproved: true, CreatedAt: base.Add(2 * time.Minute)})
	seedBook(t, m, domain.Book{ID: "4", Title: "Nothing Here", IsApproved: true, CreatedAt: base.Add(3 * time.Minute)})

	res, err := m.SearchBooks("SYSTEMS", 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(res))
	}
	// newest first
	if res[0].ID != "3" || res[1].ID != "2" || res[2].ID != "1" {
		t.Fatalf("unexpected order: %q %q %q", res[0].ID, res[1].ID, res[2].ID)
	}
}

func TestMemoryStoreSearchTreatsWildcardsLiterally(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedBook(t, m, domain.Book{ID: "1", Title: "100% Organic", IsApproved: true, CreatedAt: base})
	seedBook(t, m, domain.Book{ID: "2", Title: "1000 Recipes", IsApproved: true, CreatedAt: base.Add(time.Minute)})
	seedBook(t, m, domain.Book{ID: "3", Title: "snake_case in Go", IsApproved: true, CreatedAt: base.Add(2 * time.Minute)})
	seedBook(t, m, domain.Book{ID: "4", Title: "snakeXcase tricks", IsApproved: true, CreatedAt: base.Add(3 * time.Minute)})

	res, err := m.SearchBooks("100%", 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 || res[0].ID != "1" {
		t.Fatalf("expected %% to match only the literal title, got %+v", res)
	}

	res, err = m.SearchBooks("e_c", 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 || res[0].ID != "3" {
		t.Fatalf("expected _ to match only the literal title, got %+v", res)
	}
}

func TestMemoryStoreSearchExcludesUnapproved(t *testing.T) {
	m := NewMemoryStore()
	seedBook(t, m, domain.Book{ID: "1", Title: "Visible", IsApproved: true, CreatedAt: time.Now().UTC()})
	seedBook(t, m, domain.Book{ID: "2", Title: "Visible Pending", IsApproved: false, CreatedAt: time.Now().UTC()})

	res, err := m.SearchBooks("visible", 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 || res[0].ID != "1" {
		t.Fatalf("expected only approved book, got %+v", res)
	}

	recent, err := m.ListRecentBooks(50)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != "1" {
		t.Fatalf("expected only approved book in recent, got %+v", recent)
	}
}

func TestMemoryStoreListRecentHonorsLimit(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		seedBook(t, m, domain.Book{
			ID:         string(rune('a'+i%26)) + string(rune('0'+i/26)),
			Title:      "Book",
			IsApproved: true,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
	}
	res, err := m.ListRecentBooks(50)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(res) != 50 {
		t.Fatalf("expected 50 books, got %d", len(res))
	}
}

func TestMemoryStoreSearchReturnsPublicProjection(t *testing.T) {
	m := NewMemoryStore()
	seedBook(t, m, domain.Book{ID: "1", Title: "Report", Link: "https://x/doc.pdf", IsApproved: true, CreatedAt: time.Now().UTC()})

	res, err := m.SearchBooks("report", 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("expected 1 match, got %d", len(res))
	}
	if res[0].Link != "https://x/doc.pdf" {
		t.Fatalf("unexpected link: %q", res[0].Link)
	}
}

func TestMemoryStoreGetBook(t *testing.T) {
	m := NewMemoryStore()
	seedBook(t, m, domain.Book{ID: "1", Title: "Report", IsApproved: true})

	b, ok, err := m.GetBook("1")
	if err != nil || !ok {
		t.Fatalf("get book: ok=%v err=%v", ok, err)
	}
	if b.Title != "Report" {
		t.Fatalf("unexpected title: %q", b.Title)
	}
	if _, ok, _ := m.GetBook("missing"); ok {
		t.Fatalf("expected missing book")
	}
}

func TestMemoryStoreRecordDownloadAppends(t *testing.T) {
	m := NewMemoryStore()
	for i := 0; i < 3; i++ {
		if err := m.RecordDownload(domain.DownloadEvent{ID: string(rune('a' + i)), BookID: "1", OccurredAt: time.Now().UTC()}); err != nil {
			t.Fatalf("record download: %v", err)
		}
	}
	if got := len(m.Downloads("1")); got != 3 {
		t.Fatalf("expected 3 events, got %d", got)
	}
	if got := len(m.Downloads("2")); got != 0 {
		t.Fatalf("expected 0 events for other book, got %d", got)
	}
}

func TestMemoryStoreSettingRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	v, err := m.GetSetting("ad_script")
	if err != nil {
		t.Fatalf("get setting: %v", err)
	}
	if v != "" {
		t.Fatalf("expected empty default, got %q", v)
	}
	if err := m.SetSetting("ad_script", "<script>1</script>"); err != nil {
		t.Fatalf("set setting: %v", err)
	}
	if err := m.SetSetting("ad_script", "<script>2</script>"); err != nil {
		t.Fatalf("set setting again: %v", err)
	}
	v, err = m.GetSetting("ad_script")
	if err != nil {
		t.Fatalf("get setting: %v", err)
	}
	if v != "<script>2</script>" {
		t.Fatalf("expected last write to win, got %q", v)
	}
}
