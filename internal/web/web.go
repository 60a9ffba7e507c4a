// Package web serves the HTTP API: the evaluated Panchang of a day, the
// calendar store, reference content, the ICS export, the dial and the
// widget.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"jaincal/internal/config"
	"jaincal/internal/content"
	appLog "jaincal/internal/log"
	"jaincal/internal/model"
	"jaincal/internal/store"
)

// DashboardLoader returns the dashboard of a query, cached or fetched.
type DashboardLoader interface {
	Load(ctx context.Context, q content.DashboardQuery) (*content.Dashboard, error)
}

// ReferenceSource serves the reference content of the content source.
type ReferenceSource interface {
	FAQs(ctx context.Context, lang string) ([]model.FAQ, error)
	Tirthankars(ctx context.Context, lang string) ([]model.Tirthankar, error)
	Locations(ctx context.Context, query string) ([]model.Location, error)
}

// CalendarStore is the read side of the calendar store.
type CalendarStore interface {
	EventsForDate(ctx context.Context, date time.Time) store.DayEvents
	Month(ctx context.Context, year int, month time.Month) ([]model.CalendarDay, error)
}

// Deps are the collaborators of a Server. Reference and Store may be nil;
// their endpoints then answer 503.
type Deps struct {
	Dashboards DashboardLoader
	Reference  ReferenceSource
	Store      CalendarStore

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Server provides the HTTP API.
type Server struct {
	cfg  *config.Config
	deps Deps
	zone *time.Location
	mux  *http.ServeMux

	// Reference content changes rarely; keep it briefly in memory so the
	// widget and UI polling do not hit the content source every time.
	refCache *ttlCache
}

const referenceCacheTTL = 10 * time.Minute

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		deps:     deps,
		zone:     cfg.Zone(),
		mux:      http.NewServeMux(),
		refCache: newTTLCache(referenceCacheTTL),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. An empty
// username or password disables it.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="jaincal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/panchang", s.handlePanchang)
	s.mux.HandleFunc("GET /api/choghadiya", s.handleChoghadiya)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/faqs", s.handleFAQs)
	s.mux.HandleFunc("GET /api/tirthankars", s.handleTirthankars)
	s.mux.HandleFunc("GET /api/locations", s.handleLocations)

	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
	s.mux.HandleFunc("GET /dial.svg", s.handleDial)
	s.mux.HandleFunc("GET /widget", s.handleWidget)
	s.mux.HandleFunc("GET /widget.png", s.handleWidgetPNG)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleWidgetPNG serves the last captured widget from disk.
func (s *Server) handleWidgetPNG(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Widget.OutputPath == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, s.cfg.Widget.OutputPath)
}

func (s *Server) handleFAQs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reference == nil {
		writeError(w, http.StatusServiceUnavailable, "content source not configured")
		return
	}
	lang := s.language(r)
	s.serveCached(w, "faqs:"+lang, func() (any, error) {
		return s.deps.Reference.FAQs(r.Context(), lang)
	})
}

func (s *Server) handleTirthankars(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reference == nil {
		writeError(w, http.StatusServiceUnavailable, "content source not configured")
		return
	}
	lang := s.language(r)
	s.serveCached(w, "tirthankars:"+lang, func() (any, error) {
		return s.deps.Reference.Tirthankars(r.Context(), lang)
	})
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reference == nil {
		writeError(w, http.StatusServiceUnavailable, "content source not configured")
		return
	}
	q := r.URL.Query().Get("q")
	if len(q) < 2 {
		writeError(w, http.StatusBadRequest, "query must be at least 2 characters")
		return
	}
	s.serveCached(w, "locations:"+q, func() (any, error) {
		return s.deps.Reference.Locations(r.Context(), q)
	})
}

// serveCached answers from the reference cache or loads, caches and answers.
func (s *Server) serveCached(w http.ResponseWriter, key string, load func() (any, error)) {
	if v, ok := s.refCache.get(key, time.Now()); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}
	v, err := load()
	if err != nil {
		if errors.Is(err, content.ErrNoData) {
			writeJSON(w, http.StatusOK, []any{})
			return
		}
		appLog.Error("reference content load failed", err, "key", key)
		writeError(w, http.StatusBadGateway, "content source unavailable")
		return
	}
	s.refCache.set(key, v, time.Now())
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) now() time.Time {
	if s.deps.Now != nil {
		return s.deps.Now().In(s.zone)
	}
	return time.Now().In(s.zone)
}

// language returns the ?lang= parameter when supported, else the configured
// language.
func (s *Server) language(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); slices.Contains(config.Languages, l) {
		return l
	}
	return s.cfg.Language
}

// requestDate parses ?date=YYYY-MM-DD in the configured zone; empty means
// the date of now.
func (s *Server) requestDate(r *http.Request, now time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, s.zone), nil
	}
	return time.ParseInLocation(model.DateLayout, raw, s.zone)
}

// ttlCache is a small in-memory cache with a single TTL.
type ttlCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]ttlEntry
}

type ttlEntry struct {
	value     any
	updatedAt time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{ttl: ttl, entries: make(map[string]ttlEntry)}
}

func (c *ttlCache) get(key string, now time.Time) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || now.Sub(e.updatedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

func (c *ttlCache) set(key string, v any, now time.Time) {
	c.mu.Lock()
	c.entries[key] = ttlEntry{value: v, updatedAt: now}
	c.mu.Unlock()
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
