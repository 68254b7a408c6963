// Package server provides the HTTP surface of the photobooth: the
// REST API, the MJPEG preview stream, and the interaction WebSocket.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/eccker/photoboth/internal/capture"
	"github.com/eccker/photoboth/internal/interact"
	"github.com/eccker/photoboth/internal/server/api"
	"github.com/eccker/photoboth/internal/store"
)

// CaptureFunc takes one photo on demand and returns its stored record.
type CaptureFunc func() (*store.Capture, error)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	PhotoDir  string
	Store     *store.Store
	Camera    capture.Camera
	Engine    *interact.Engine

	// Capture is the manual trigger invoked by POST /api/capture.
	// Nil disables the endpoint.
	Capture CaptureFunc
}

// Server represents the photobooth HTTP server.
type Server struct {
	config       Config
	mux          *http.ServeMux
	interactions *InteractionHandler
	stream       *StreamHandler
	start        time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		captureHandler := api.NewCaptureHandler(s.config.Store)
		s.mux.Handle("/api/captures", captureHandler)
		s.mux.Handle("/api/captures/", captureHandler)

		sessionHandler := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessionHandler)
		s.mux.Handle("/api/sessions/", sessionHandler)
	}

	if s.config.Capture != nil {
		s.mux.HandleFunc("/api/capture", s.handleCapture)
	}

	if s.config.Camera != nil {
		s.stream = NewStreamHandler(s.config.Camera, s.config.Engine)
		s.mux.Handle("/api/stream", s.stream)
	}

	if s.config.Engine != nil {
		s.interactions = NewInteractionHandler(s.config.Engine)
		s.mux.Handle("/api/interact", s.interactions)
	}

	// Saved photos are served read-only for the gallery view.
	if s.config.PhotoDir != "" {
		fs := http.FileServer(http.Dir(s.config.PhotoDir))
		s.mux.Handle("/photos/", http.StripPrefix("/photos/", fs))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Interactions returns the WebSocket interaction handler, or nil when
// no engine was configured.
func (s *Server) Interactions() *InteractionHandler {
	return s.interactions
}

// Stream returns the MJPEG preview handler, or nil when no camera was
// configured.
func (s *Server) Stream() *StreamHandler {
	return s.stream
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleCapture handles POST /api/capture: the manual shutter.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	c, err := s.config.Capture()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Capture failed"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     c.ID,
		"path":   c.Path,
		"width":  c.Width,
		"height": c.Height,
	})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
