package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveWithRequestID(t *testing.T, req *http.Request) (header, inContext string) {
	t.Helper()
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inContext = RequestIDFromRequest(r)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Header().Get("X-Request-Id"), inContext
}

func TestWithRequestIDKeepsCallerID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("X-Request-Id", "  cli-42  ")
	header, inContext := serveWithRequestID(t, req)
	if inContext != "cli-42" {
		t.Fatalf("context id = %q, want trimmed caller id", inContext)
	}
	if header != "cli-42" {
		t.Fatalf("response id = %q, want trimmed caller id", header)
	}
}

func TestWithRequestIDGeneratesDistinctIDs(t *testing.T) {
	h1, c1 := serveWithRequestID(t, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	h2, c2 := serveWithRequestID(t, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	if c1 == "" || c2 == "" {
		t.Fatal("expected generated request ids")
	}
	if h1 != c1 || h2 != c2 {
		t.Fatalf("header/context mismatch: %q vs %q, %q vs %q", h1, c1, h2, c2)
	}
	if c1 == c2 {
		t.Fatalf("expected distinct ids per request, both %q", c1)
	}
}

func TestRequestIDFromContextDefaultsEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	if got := RequestIDFromRequest(req); got != "" {
		t.Fatalf("expected empty id outside middleware, got %q", got)
	}
}
