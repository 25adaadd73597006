package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driving"
)

// Pinger is the health-check surface of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the dashboard API. Routes are registered on a stdlib mux
// with method patterns; auth wraps everything below /api/v1 except
// login, refresh and first-run setup.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	deps Deps
}

// Config holds the listen address, reported version and CORS origins.
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
}

// DefaultConfig returns the dev defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// Deps carries the services the handlers call. TaskQueue and Redis may
// be nil; the affected endpoints degrade rather than fail.
type Deps struct {
	Auth         driving.AuthService
	Users        driving.UserService
	Emails       driving.EmailService
	Knowledge    driving.KnowledgeService
	Settings     driving.SettingsService
	Orchestrator driving.AgentOrchestrator
	Scheduler    driving.Scheduler
	TaskQueue    driven.TaskQueue
	DB           Pinger
	Redis        Pinger
}

// NewServer creates the API server and registers all routes.
func NewServer(cfg Config, deps Deps) *Server {
	s := &Server{
		router:  http.NewServeMux(),
		version: cfg.Version,
		deps:    deps,
	}

	// Outermost first: recovery catches panics in everything below it
	handler := PanicRecovery(RequestLogging(CORS(cfg.AllowedOrigins)(s.router)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	mw := NewAuthMiddleware(s.deps.Auth)

	authed := func(h http.HandlerFunc) http.Handler {
		return mw.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return mw.Authenticate(mw.RequireAdmin(h))
	}

	// Health and version, unauthenticated
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Login, token refresh and first-run setup are the only public API
	// endpoints
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)
	s.router.HandleFunc("POST /api/v1/setup", s.handleSetup)

	s.router.Handle("POST /api/v1/auth/logout", authed(s.handleLogout))
	s.router.Handle("POST /api/v1/auth/password", authed(s.handleChangePassword))
	s.router.Handle("GET /api/v1/me", authed(s.handleGetMe))

	// User management, admin only
	s.router.Handle("GET /api/v1/users", admin(s.handleListUsers))
	s.router.Handle("POST /api/v1/users", admin(s.handleCreateUser))
	s.router.Handle("DELETE /api/v1/users/{id}", admin(s.handleDeleteUser))

	// Email records
	s.router.Handle("GET /api/v1/emails", authed(s.handleListEmails))
	s.router.Handle("GET /api/v1/emails/stats", authed(s.handleEmailStats))
	s.router.Handle("GET /api/v1/emails/{id}", authed(s.handleGetEmail))
	s.router.Handle("PATCH /api/v1/emails/{id}", authed(s.handleUpdateEmail))
	s.router.Handle("DELETE /api/v1/emails/{id}", admin(s.handleDeleteEmail))
	s.router.Handle("POST /api/v1/emails/{id}/process", authed(s.handleProcessEmail))
	s.router.Handle("POST /api/v1/emails/{id}/responses", authed(s.handleGenerateResponse))
	s.router.Handle("GET /api/v1/emails/{id}/responses", authed(s.handleListResponses))
	s.router.Handle("POST /api/v1/responses/{id}/send", authed(s.handleSendResponse))

	// Knowledge base: reads for everyone, mutations for admins
	s.router.Handle("GET /api/v1/knowledge", authed(s.handleListKnowledge))
	s.router.Handle("POST /api/v1/knowledge", admin(s.handleAddKnowledge))
	s.router.Handle("GET /api/v1/knowledge/stats", authed(s.handleKnowledgeStats))
	s.router.Handle("POST /api/v1/knowledge/search", authed(s.handleSearchKnowledge))
	s.router.Handle("POST /api/v1/knowledge/rebuild", admin(s.handleRebuildKnowledge))
	s.router.Handle("GET /api/v1/knowledge/{id}", authed(s.handleGetKnowledge))
	s.router.Handle("POST /api/v1/knowledge/{id}/deactivate", admin(s.handleDeactivateKnowledge))
	s.router.Handle("POST /api/v1/knowledge/{id}/reactivate", admin(s.handleReactivateKnowledge))

	// Agent jobs: state is readable, triggers are admin only
	s.router.Handle("POST /api/v1/agent/sweep", admin(s.handleTriggerSweep))
	s.router.Handle("GET /api/v1/agent/sweep", authed(s.handleSweepState))
	s.router.Handle("POST /api/v1/agent/cleanup", admin(s.handleTriggerCleanup))
	s.router.Handle("POST /api/v1/agent/refresh", admin(s.handleTriggerRefresh))
	s.router.Handle("GET /api/v1/agent/jobs", admin(s.handleListJobs))
	s.router.Handle("POST /api/v1/agent/jobs/{id}/trigger", admin(s.handleTriggerJob))
	s.router.Handle("PUT /api/v1/agent/jobs/{id}/enabled", admin(s.handleSetJobEnabled))
	s.router.Handle("GET /api/v1/agent/queue", admin(s.handleQueueStats))

	// Settings, admin only except the AI status read
	s.router.Handle("GET /api/v1/settings", admin(s.handleGetSettings))
	s.router.Handle("PUT /api/v1/settings", admin(s.handleUpdateSettings))
	s.router.Handle("GET /api/v1/settings/ai", admin(s.handleGetAISettings))
	s.router.Handle("PUT /api/v1/settings/ai", admin(s.handleUpdateAISettings))
	s.router.Handle("GET /api/v1/settings/ai/status", authed(s.handleGetAIStatus))
	s.router.Handle("POST /api/v1/settings/ai/test", admin(s.handleTestAIConnection))
}

// Start serves until SIGINT or SIGTERM, then drains connections for up
// to 30 seconds.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop shuts the server down without waiting for a signal.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
