// Package httpinternal exposes the ledger core's read-only operator
// surface: liveness/readiness, Prometheus scrape, and a snapshot of
// the safety supervisor's current pause state. It never accepts a
// mutating request — admin actions (pause, season rollover) are a
// ledgerctl CLI concern, not an HTTP one.
package httpinternal

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/ledger"
)

// Server is the local-only operator HTTP surface in front of one
// running Engine.
type Server struct {
	router *mux.Router
	server *http.Server
	config Config

	safety *domain.SafetyState
	events *ledger.EventLog
}

// Config holds the listener and timeout settings.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig binds to loopback only, matching the core's
// assumption that nothing outside the host process is trusted to
// reach this surface directly — a reverse proxy terminates external
// traffic.
func DefaultConfig() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         9090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// New builds a Server bound to cfg, reading safety/events from the
// given SafetyState and EventLog. It fails fast if the port is already taken.
func New(cfg Config, safety *domain.SafetyState, events *ledger.EventLog) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("httpinternal: port %d is busy or unavailable: %w", cfg.Port, err)
	}
	listener.Close()

	s := &Server{
		router: mux.NewRouter(),
		config: cfg,
		safety: safety,
		events: events,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/safety", s.handleSafety).Methods("GET")
	s.router.HandleFunc("/events/since/{seq}", s.handleEventsSince).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

type requestIDKey struct{}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWrapper{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Debug().
			Str("request_id", fmt.Sprint(r.Context().Value(requestIDKey{}))).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("elapsed", time.Since(start)).
			Msg("httpinternal request")
	})
}

type statusWrapper struct {
	http.ResponseWriter
	status int
}

func (w *statusWrapper) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleSafety(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pause_level":     s.safety.PauseLevel,
		"recovery_mode":   s.safety.Recovery,
		"coverage_ratio":  s.safety.CoverageRatio.Float64(),
		"bootstrap_vault": s.safety.BootstrapVault.Float64(),
	})
}

func (s *Server) handleEventsSince(w http.ResponseWriter, r *http.Request) {
	seqStr := mux.Vars(r)["seq"]
	seq, err := strconv.ParseUint(seqStr, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "seq must be a non-negative integer"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": s.events.Since(seq)})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Start blocks serving until the listener errors or Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.config.Host+":"+strconv.Itoa(s.config.Port)).Msg("httpinternal server starting")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
