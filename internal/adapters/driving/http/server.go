// Package http exposes the sync engine's management and run API.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/quillhq/docsync/internal/core/ports/driving"
)

// Pinger is a simple health check interface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	sourceService   driving.SourceService
	runService      driving.RunService
	oauthService    driving.OAuthService
	providerService driving.ProviderAdminService

	// Infrastructure
	db    Pinger
	redis Pinger // optional
}

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	Version    string
	SigningKey []byte
	Logger     *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates the HTTP server with all routes wired.
func NewServer(
	cfg Config,
	sourceService driving.SourceService,
	runService driving.RunService,
	oauthService driving.OAuthService,
	providerService driving.ProviderAdminService,
	db Pinger,
	redis Pinger, // can be nil
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		logger:          logger,
		sourceService:   sourceService,
		runService:      runService,
		oauthService:    oauthService,
		providerService: providerService,
		db:              db,
		redis:           redis,
	}

	recovery := NewRecoveryMiddleware(logger)
	logging := NewLoggingMiddleware(logger)

	s.setupRoutes(NewAuthMiddleware(cfg.SigningKey))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      recovery.Handler(logging.Handler(s.router)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // manual runs block until done
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(auth *AuthMiddleware) {
	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Source endpoints (admin-only mutations)
	s.router.Handle("GET /api/v1/sources",
		auth.Authenticate(http.HandlerFunc(s.handleListSources)))
	s.router.Handle("POST /api/v1/sources",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleCreateSource))))
	s.router.Handle("GET /api/v1/sources/{id}",
		auth.Authenticate(http.HandlerFunc(s.handleGetSource)))
	s.router.Handle("PUT /api/v1/sources/{id}",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleUpdateSource))))
	s.router.Handle("DELETE /api/v1/sources/{id}",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleDeleteSource))))

	// Connection management
	s.router.Handle("GET /api/v1/sources/{id}/connection",
		auth.Authenticate(http.HandlerFunc(s.handleGetConnectionStatus)))
	s.router.Handle("POST /api/v1/sources/{id}/disconnect",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleDisconnectSource))))
	s.router.Handle("GET /api/v1/sources/{id}/folders",
		auth.Authenticate(http.HandlerFunc(s.handleListRemoteFolders)))
	s.router.Handle("PUT /api/v1/sources/{id}/folder",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleSelectFolder))))
	s.router.Handle("POST /api/v1/sources/{id}/run-secret",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleRotateRunSecret))))

	// Runs
	s.router.Handle("POST /api/v1/sources/{id}/run",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleRunSource))))
	s.router.Handle("POST /api/v1/sources/{id}/test",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleTestSource))))
	s.router.Handle("GET /api/v1/sources/{id}/run",
		auth.Authenticate(http.HandlerFunc(s.handleGetRunState)))

	// Provider app registrations (admin-only)
	s.router.Handle("GET /api/v1/providers/{type}/config",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleGetProviderConfig))))
	s.router.Handle("POST /api/v1/providers/{type}/config",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleSaveProviderConfig))))
	s.router.Handle("DELETE /api/v1/providers/{type}/config",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleDeleteProviderConfig))))

	// OAuth flow
	s.router.Handle("POST /api/v1/sources/{id}/oauth/authorize",
		auth.Authenticate(auth.RequireAdmin(http.HandlerFunc(s.handleOAuthAuthorize))))
	// Callback is public: it receives redirects from providers.
	s.router.HandleFunc("GET /api/v1/oauth/callback", s.handleOAuthCallback)

	// External run hook, authenticated by per-source secret.
	s.router.HandleFunc("POST /hooks/sources/{id}/run", s.handleRunHook)
}

// ListenAndServe starts serving and blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
