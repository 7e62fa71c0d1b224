// Package server exposes the board over HTTP: a rendered page, a small JSON
// API polled by the page, and a health endpoint.
package server

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"

	"remarks/credentials"
	"remarks/domain"
	"remarks/observability"
	"remarks/refresh"
	"remarks/services"
)

//go:embed board.html
var templatesFS embed.FS

// Config carries the presentation knobs the handlers need.
type Config struct {
	Cookie       credentials.Cookie
	PollInterval time.Duration
}

type Server struct {
	app      *fiber.App
	auth     services.IAuthService
	board    services.IBoardService
	refresh  *refresh.Controller
	monitor  *observability.Monitor
	sessions *sessionRegistry
	config   Config
	log      *slog.Logger
	tmpl     *template.Template
}

func New(
	auth services.IAuthService,
	board services.IBoardService,
	refreshController *refresh.Controller,
	monitor *observability.Monitor,
	config Config,
	log *slog.Logger,
) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "remarks",
			DisableStartupMessage: true,
		}),
		auth:     auth,
		board:    board,
		refresh:  refreshController,
		monitor:  monitor,
		sessions: newSessionRegistry(config.Cookie.Expiry()),
		config:   config,
		log:      log,
		tmpl:     template.Must(template.ParseFS(templatesFS, "board.html")),
	}

	s.app.Use(logger.New())
	s.app.Get("/", s.handleIndex)
	s.app.Post("/login", s.handleLogin)
	s.app.Get("/healthz", s.handleHealthz)

	api := s.app.Group("/api", s.requireSession)
	api.Get("/messages", s.handleListMessages)
	api.Post("/messages", s.handlePostMessage)
	api.Post("/messages/clear", s.handleClearMessages)

	return s
}

// Listen blocks serving requests until Shutdown is called.
func (s *Server) Listen(address string) error {
	s.log.Info("Serving board", "address", address)
	return s.app.Listen(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// sessionRegistry caches live authenticated sessions between polls so the
// refresh latch and window survive across requests of the same client.
// Eviction runs on a registry-owned touched-at timestamp: the refresh state
// on the Session itself belongs to the refresh controller and is never read
// here.
type sessionRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uuid.UUID]*sessionEntry
}

type sessionEntry struct {
	session   *domain.Session
	touchedAt time.Time
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{ttl: ttl, entries: make(map[uuid.UUID]*sessionEntry)}
}

// resolve returns the cached session with the same identity when present,
// otherwise registers the given one. Unauthenticated sessions pass through
// uncached: a client replaying a stale cookie must not grow the registry.
func (r *sessionRegistry) resolve(s *domain.Session) *domain.Session {
	if s.Status != domain.Authenticated {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if entry, ok := r.entries[s.ID]; ok {
		entry.touchedAt = now
		return entry.session
	}
	r.prune(now)
	r.entries[s.ID] = &sessionEntry{session: s, touchedAt: now}
	return s
}

func (r *sessionRegistry) prune(now time.Time) {
	cutoff := now.Add(-r.ttl)
	for id, entry := range r.entries {
		if entry.touchedAt.Before(cutoff) {
			delete(r.entries, id)
		}
	}
}
