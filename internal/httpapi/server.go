// Package httpapi exposes brewery pages, per-type streams and brewery details
// over HTTP and WebSocket.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Sternrassler/brewery-pager/pkg/metrics"
	"github.com/Sternrassler/brewery-pager/pkg/pagination"
	"github.com/Sternrassler/brewery-pager/pkg/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether the persistent store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the HTTP surface settings.
type Config struct {
	// PageSize is the per_page used when the query leaves it out.
	PageSize int
	// MaxPageSize bounds per_page.
	MaxPageSize int
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	// ReadyTimeout bounds the store ping of /ready.
	ReadyTimeout time.Duration
}

// DefaultConfig returns the default HTTP surface settings.
func DefaultConfig() Config {
	return Config{
		PageSize:     pagination.DefaultPageSize,
		MaxPageSize:  200,
		ReadyTimeout: 2 * time.Second,
	}
}

// Server routes API requests to the repository and the stream registry.
type Server struct {
	repo     *repository.Repository
	registry *pagination.Registry
	pinger   Pinger
	cfg      Config
	logger   zerolog.Logger
	router   chi.Router
	upgrader websocket.Upgrader
}

// NewServer creates a Server. pinger may be nil, in which case /ready
// always succeeds.
func NewServer(repo *repository.Repository, registry *pagination.Registry, pinger Pinger, cfg Config) *Server {
	if repo == nil {
		panic("repository cannot be nil")
	}
	if registry == nil {
		panic("registry cannot be nil")
	}

	defaults := DefaultConfig()
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = defaults.MaxPageSize
	}
	if cfg.PageSize <= 0 || cfg.PageSize > cfg.MaxPageSize {
		cfg.PageSize = defaults.PageSize
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaults.ReadyTimeout
	}

	s := &Server{
		repo:     repo,
		registry: registry,
		pinger:   pinger,
		cfg:      cfg,
		logger:   log.With().Str("component", "http-api").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(RequestID)
	r.Use(AccessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/types", s.handleTypes)
		r.Get("/streams", s.handleStreams)

		r.Route("/types/{type}", func(r chi.Router) {
			r.Use(requireKnownType)

			r.Get("/pages/{page}", s.handlePage)
			r.Delete("/cache", s.handleClearCache)

			r.Get("/stream", s.handleSnapshot)
			r.Post("/stream/append", s.handleAppend)
			r.Post("/stream/prepend", s.handlePrepend)
			r.Get("/stream/ws", s.handleStreamWS)
		})

		r.Get("/breweries/{id}", s.handleBrewery)
	})

	return r
}
