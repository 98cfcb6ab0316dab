package web

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/facecheck/internal/config"
	"github.com/kozaktomas/facecheck/internal/recognition"
	"github.com/kozaktomas/facecheck/internal/web/handlers"
	"github.com/kozaktomas/facecheck/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config         *config.Config
	service        *recognition.Service
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *handlers.SessionManager
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, svc *recognition.Service, port int, host string) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:         cfg,
		service:        svc,
		router:         r,
		sessionManager: handlers.NewSessionManager(),
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: live sessions stream until they finish
	}

	return s
}

// Start starts the HTTP server and notifies systemd once it is listening
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Printf("Starting web server on %s", ln.Addr())

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Printf("Warning: sd_notify failed: %v", err)
	} else if ok {
		log.Println("Notified systemd that the server is ready")
	}

	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops live sessions and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	s.sessionManager.CancelAll()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
