package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"orcus/internal/app"
	"orcus/internal/ratelimit"
	"orcus/internal/token"
	"orcus/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                 *app.App
	Limiter             *ratelimit.FixedWindowLimiter
	TrustedProxies      *util.TrustedProxies
	MaxUploadBytes      int64
	InterstitialSeconds int
}

// Server exposes the catalog HTTP endpoints.
type Server struct {
	app                 *app.App
	limiter             *ratelimit.FixedWindowLimiter
	trusted             *util.TrustedProxies
	mux                 *http.ServeMux
	maxUploadBytes      int64
	interstitialSeconds int
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app is required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	interstitialSeconds := cfg.InterstitialSeconds
	if interstitialSeconds < 0 {
		interstitialSeconds = 0
	}
	s := &Server{
		app:                 cfg.App,
		limiter:             cfg.Limiter,
		trusted:             cfg.TrustedProxies,
		mux:                 http.NewServeMux(),
		maxUploadBytes:      maxUploadBytes,
		interstitialSeconds: interstitialSeconds,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.withRateLimit(s.mux)))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/config", s.handleConfig)

	// catalog
	s.mux.HandleFunc("/api/books", s.handleBooks)
	s.mux.HandleFunc("/api/books/", s.handleBookByID)
	s.mux.HandleFunc("/api/upload", s.handleUpload)
	s.mux.HandleFunc("/api/download/", s.handleDownload)

	// admin
	s.mux.HandleFunc("/api/admin/login", s.handleAdminLogin)
	s.mux.HandleFunc("/api/admin/settings/adscript", s.handleAdScript)
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(util.ClientIP(r, s.trusted)) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConfig exposes the values the static front end needs to render the
// interstitial countdown and the upload form.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"interstitialSeconds": s.interstitialSeconds,
		"maxUploadBytes":      s.maxUploadBytes,
	})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateBook(w, r)
	case http.MethodGet:
		s.handleSearchBooks(w, r)
	default:
		methodNotAllowed(w)
	}
}

type createBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	Link        string `json:"link"`
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	book, err := s.app.CreateFromLink(app.CreateBookInput{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Tags:        req.Tags,
		Link:        req.Link,
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": book.ID})
}

func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.app.Search(r.URL.Query().Get("q"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": books,
		"count": len(books),
	})
}

// /api/books/{id}
func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/books/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	book, err := s.app.GetBook(id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	book, err := s.app.CreateFromUpload(r.Context(), header.Filename, file, header.Size, app.CreateBookInput{
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":   book.ID,
		"file": book.File,
	})
}

// /api/download/{id}
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/download/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	res, err := s.app.Retrieve(r.Context(), id, app.RequestContext{
		IP:        util.ClientIP(r, s.trusted),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if res.File == nil {
		http.Redirect(w, r, res.RedirectURL, http.StatusFound)
		return
	}
	f := res.File
	defer f.Content.Close()
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename}))
	if f.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	}
	if _, err := io.Copy(w, f.Content); err != nil {
		util.LoggerFromContext(r.Context()).Error("stream download", "err", err)
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tok, err := s.app.AdminLogin(req.Password)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

type adScriptRequest struct {
	AdScript string `json:"adScript"`
}

// Reads are ungated; writes require the admin token.
func (s *Server) handleAdScript(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		value, err := s.app.AdScript()
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"adScript": value})
	case http.MethodPost:
		tok, ok := token.FromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := s.app.VerifyAdminToken(tok); err != nil {
			s.writeAppError(w, err)
			return
		}
		var req adScriptRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.app.SetAdScript(req.AdScript); err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, "title is required")
	case errors.Is(err, app.ErrFileRequired):
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
	case errors.Is(err, app.ErrBookNotFound):
		writeError(w, http.StatusNotFound, "book not found")
	case errors.Is(err, app.ErrNoFileOrLink):
		writeError(w, http.StatusBadRequest, "book has no file or link")
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, app.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int, msg string) string {
	switch strings.ToLower(strings.TrimSpace(msg)) {
	case "title is required":
		return "BOOK_TITLE_REQUIRED"
	case "file is required (field: file)":
		return "BOOK_FILE_REQUIRED"
	case "file too large":
		return "BOOK_FILE_TOO_LARGE"
	case "book not found":
		return "BOOK_NOT_FOUND"
	case "book has no file or link":
		return "BOOK_NO_FILE_OR_LINK"
	case "invalid form data", "invalid json body":
		return "BOOK_INVALID_REQUEST"
	case "invalid credentials":
		return "AUTH_INVALID_CREDENTIALS"
	case "unauthorized":
		return "AUTH_TOKEN_REQUIRED"
	case "invalid token":
		return "AUTH_INVALID_TOKEN"
	case "too many requests":
		return "SYSTEM_RATE_LIMITED"
	case "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "BOOK_INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusNotFound:
		return "BOOK_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
