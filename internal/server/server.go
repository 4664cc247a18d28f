package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/omriShneor/clarity/internal/calformat"
	"github.com/omriShneor/clarity/internal/chat"
	"github.com/omriShneor/clarity/internal/database"
	"github.com/omriShneor/clarity/internal/logging"
)

type Server struct {
	db                 *database.DB
	chat               *chat.Service
	formatter          *calformat.Formatter
	calendarConfigured bool
	llmConfigured      bool
	httpSrv            *http.Server
	port               int
	logger             zerolog.Logger
}

// ServerConfig holds configuration for server creation
type ServerConfig struct {
	DB                 *database.DB
	Chat               *chat.Service
	Formatter          *calformat.Formatter
	Port               int
	CalendarConfigured bool
	LLMConfigured      bool
}

func New(cfg ServerConfig) *Server {
	if cfg.Formatter == nil {
		cfg.Formatter = calformat.New(calformat.Options{})
	}

	s := &Server{
		db:                 cfg.DB,
		chat:               cfg.Chat,
		formatter:          cfg.Formatter,
		calendarConfigured: cfg.CalendarConfigured,
		llmConfigured:      cfg.LLMConfigured,
		port:               cfg.Port,
		logger:             logging.For("http"),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// no write timeout: chat replies and session streams are long-lived
	s.httpSrv = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.corsMiddleware(s.loggingMiddleware(mux)),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", s.handleHealthCheck)

	// Chat API
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.handleSessionMessages)
	mux.HandleFunc("GET /api/sessions/{id}/stream", s.handleSessionStream)
	mux.HandleFunc("GET /api/sessions/{id}/ws", s.handleSessionSocket)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)

	// Formatting API
	mux.HandleFunc("POST /api/format", s.handleFormat)
}

func (s *Server) Start() error {
	s.logger.Info().Int("port", s.port).Msgf("Starting HTTP server on http://localhost:%d", s.port)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// corsMiddleware adds CORS headers to allow browser clients
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps streaming handlers working behind the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets websocket upgrades take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
