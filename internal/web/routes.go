package web

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facecheck/internal/web/handlers"
	"github.com/kozaktomas/facecheck/internal/web/static"
)

func (s *Server) setupRoutes() {
	configHandler := handlers.NewConfigHandler(s.config, s.service.Matcher())
	recognizeHandler := handlers.NewRecognizeHandler(s.service)
	sessionsHandler := handlers.NewSessionsHandler(s.service, s.sessionManager, s.config.Watch.MaxFrames)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/config", configHandler.Get)

		// Single shot
		r.Post("/recognize", recognizeHandler.Recognize)

		// Live sessions
		r.Post("/sessions", sessionsHandler.Start)
		r.Get("/sessions/{sessionId}", sessionsHandler.Status)
		r.Get("/sessions/{sessionId}/events", sessionsHandler.Events)
		r.Delete("/sessions/{sessionId}", sessionsHandler.Stop)
	})

	// Serve static files for frontend (SPA)
	s.router.Get("/*", s.serveSPA)
}

// serveSPA serves the embedded single-page UI, falling back to index.html for unknown routes
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	fsys := static.GetFileSystem()

	p := r.URL.Path
	if p == "/" {
		p = "/index.html"
	}

	f, err := fsys.Open(p)
	if err != nil {
		if strings.HasPrefix(p, "/assets/") {
			http.NotFound(w, r)
			return
		}
		p = "/index.html"
		f, err = fsys.Open(p)
		if err != nil {
			http.Error(w, "frontend not available", http.StatusNotFound)
			return
		}
	}
	defer f.Close()

	if stat, err := f.Stat(); err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(p))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if strings.HasPrefix(p, "/assets/") {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	}
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}
