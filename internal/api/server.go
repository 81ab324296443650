// Package api provides the HTTP API server and handlers for the Padlock application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-json-experiment/json"

	"github.com/padlockapp/padlock-server/internal/config"
	"github.com/padlockapp/padlock-server/internal/http/response"
	"github.com/padlockapp/padlock-server/internal/service"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authService       *service.AuthService
	sessionService    *service.SessionService
	credentialService *service.CredentialService
	sharingService    *service.SharingService
	tagService        *service.TagService
	router            *chi.Mux
	logger            *slog.Logger
	secureCookies     bool
	allowedOrigins    []string
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(authService *service.AuthService, sessionService *service.SessionService, credentialService *service.CredentialService, sharingService *service.SharingService, tagService *service.TagService, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		authService:       authService,
		sessionService:    sessionService,
		credentialService: credentialService,
		sharingService:    sharingService,
		tagService:        tagService,
		router:            chi.NewRouter(),
		logger:            logger,
		secureCookies:     cfg.Auth.SecureCookies,
		allowedOrigins:    cfg.Server.AllowedOrigins,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// Public auth endpoints.
	s.router.Post("/login", s.handleLogin)
	s.router.Post("/users", s.handleRegister)

	// Everything else requires a session.
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/logout", s.handleLogout)
		r.Get("/users/me", s.handleGetCurrentUser)

		r.Route("/passwords", func(r chi.Router) {
			r.Get("/", s.handleListCredentials)
			r.Post("/", s.handleCreateCredential)
			r.Post("/share", s.handleShare)
			r.Post("/revoke-share", s.handleRevokeShare)
			r.Get("/{id}", s.handleGetCredential)
			r.Put("/{id}", s.handleUpdateCredential)
			r.Delete("/{id}", s.handleDeleteCredential)
			r.Post("/{id}/tags", s.handleAddTag)
			r.Delete("/{id}/tags/{tagId}", s.handleRemoveTag)
		})

		r.Get("/tags", s.handleListTags)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}

// decodeJSON reads a JSON request body into dst. Malformed bodies are a
// client error, reported generically.
func decodeJSON(r *http.Request, dst any) error {
	return json.UnmarshalRead(r.Body, dst)
}
