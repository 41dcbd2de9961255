// ABOUTME: Local viewer HTTP API over the session store and short-link directory
// ABOUTME: Public short-link resolution plus admin listing and deletion

package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/harper/beacon/internal/models"
	"github.com/harper/beacon/internal/shortlink"
	"github.com/harper/beacon/internal/storage"
)

// AdminTokenHeader carries the admin token on admin routes.
const AdminTokenHeader = "X-Admin-Token"

// Server serves session views and resolves short codes.
type Server struct {
	sessions   *storage.SessionStore
	links      *shortlink.Directory
	adminToken string
	limiter    *RateLimiter
	logger     *log.Logger
	now        func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithAdminToken requires token on admin routes. Empty leaves them open.
func WithAdminToken(token string) Option {
	return func(s *Server) { s.adminToken = token }
}

// WithRateLimiter replaces the short-link rate limiter.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock replaces time.Now for recency rendering.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a viewer server.
func NewServer(sessions *storage.SessionStore, links *shortlink.Directory, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		links:    links,
		limiter:  NewRateLimiter(1, 10),
		logger:   log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the router wrapped in recovery, request logging and CORS.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.HandleFunc("/s/{code}", s.follow).Methods(http.MethodGet)
	r.HandleFunc("/map/{id}", s.session).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions", s.listSessions).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", s.session).Methods(http.MethodGet)
	r.HandleFunc("/api/links", s.adminOnly(s.listLinks)).Methods(http.MethodGet)
	r.HandleFunc("/api/links/{code}", s.adminOnly(s.deleteLink)).Methods(http.MethodDelete)

	var h http.Handler = r
	h = handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.logger}))(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", AdminTokenHeader}),
	)(h)
	return h
}

type followResponse struct {
	Link    models.ShortLink `json:"link"`
	Session *SessionView     `json:"session"`
}

// follow counts the click, then resolves the session behind the code.
func (s *Server) follow(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	code := mux.Vars(r)["code"]
	link, err := s.links.Follow(code)
	if errors.Is(err, shortlink.ErrNotFound) {
		writeError(w, http.StatusNotFound, "link not found")
		return
	}
	if err != nil {
		s.internal(w, err)
		return
	}

	resp := followResponse{Link: *link}
	session, err := s.sessions.Load(link.SessionID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debug("short link points at missing session", "code", code, "session_id", link.SessionID)
	case err != nil:
		s.internal(w, err)
		return
	default:
		view := BuildView(session, s.now(), recentParam(r))
		resp.Session = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, err := s.sessions.Load(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.internal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BuildView(session, s.now(), recentParam(r)))
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	dir, err := s.sessions.List()
	if err != nil {
		s.internal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dir)
}

type linksResponse struct {
	Links []models.ShortLink `json:"links"`
	Stats shortlink.Stats    `json:"stats"`
}

func (s *Server) listLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.links.ListNewestFirst()
	if err != nil {
		s.internal(w, err)
		return
	}
	resp := linksResponse{Links: links}
	resp.Stats.Links = len(links)
	for _, l := range links {
		resp.Stats.Clicks += l.Clicks
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteLink(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if err := s.links.Delete(code); err != nil {
		s.internal(w, err)
		return
	}
	s.logger.Info("short link deleted", "code", code)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken != "" && r.Header.Get(AdminTokenHeader) != s.adminToken {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) internal(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Debug("request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"bytes", p.Size,
		"took", time.Since(p.TimeStamp).Round(time.Microsecond))
}

type recoveryLogger struct{ l *log.Logger }

func (r recoveryLogger) Println(v ...interface{}) {
	r.l.Error("panic serving request", "detail", fmt.Sprint(v...))
}

func recentParam(r *http.Request) int {
	q := r.URL.Query().Get("recent")
	if q == "" {
		return DefaultRecent
	}
	n, err := strconv.Atoi(q)
	if err != nil || n < 0 {
		return DefaultRecent
	}
	return n
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("viewer listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down viewer")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("viewer shutdown: %w", err)
	}
	return nil
}
