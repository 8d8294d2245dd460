// Package api provides the HTTP API server and handlers for the bookstore.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookhaven/bookhaven-server/internal/http/response"
	"github.com/bookhaven/bookhaven-server/internal/media/images"
	"github.com/bookhaven/bookhaven-server/internal/ratelimit"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

// Config holds the HTTP-level settings of the server.
type Config struct {
	CookieName   string
	CookieSecure bool
	TokenTTL     time.Duration
	CORSOrigins  []string
	Upload       images.Policy

	// Credential endpoints are limited per client IP.
	RatePerMinute int
	RateBurst     int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *store.Store
	services        *Services
	images          *images.Storage
	cfg             Config
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, storage *images.Storage, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}

	s := &Server{
		store:           st,
		services:        services,
		images:          storage,
		cfg:             cfg,
		router:          chi.NewRouter(),
		logger:          logger,
		authRateLimiter: newAuthRateLimiter(cfg.RatePerMinute, cfg.RateBurst),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Bookstore API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	// Response bodies carry no $schema links.
	humaConfig.CreateHooks = nil

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(logger)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown releases background resources held by the server.
func (s *Server) Shutdown() {
	s.authRateLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(tokenExtractor(s.cfg.CookieName))
}

// setupRoutes registers every route. JSON endpoints go through huma, the
// multipart book writes and static files through chi directly.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerUserRoutes()

	if s.images != nil {
		s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", s.uploadsHandler()))
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Not Found - "+r.URL.Path, s.logger)
	})
}

// uploadsHandler serves stored images without directory listings.
func (s *Server) uploadsHandler() http.Handler {
	files := http.FileServer(http.Dir(s.images.Root()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			response.NotFound(w, "Not Found - /uploads/"+r.URL.Path, s.logger)
			return
		}
		w.Header().Set("Cache-Control", CacheOneWeek)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
