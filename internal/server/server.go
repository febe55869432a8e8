// Package server exposes a read-only diagnostics API over the migration
// repository: health, per-file status, and applied history. It never mutates
// the schema; all write operations stay on the CLI.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"schema_migrator/internal/migrate"
)

// repository is the slice of the migration engine the API reads from.
type repository interface {
	Ping(ctx context.Context) error
	StatusEntries(ctx context.Context) ([]migrate.StatusEntry, error)
	HistoryEntries(ctx context.Context) ([]migrate.HistoryEntry, error)
}

type logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type Server struct {
	addr   string
	repo   repository
	logger logger
}

func New(addr string, repo repository, logger logger) *Server {
	return &Server{addr: addr, repo: repo, logger: logger}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(RequestID)
	r.Use(RequestLogger(s.logger))

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", s.handleHealth)
		api.Get("/migrations", s.handleMigrations)
		api.Get("/history", s.handleHistory)
	})
	return r
}

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "service_unhealthy", "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", DB: "ok"})
}

func (s *Server) handleMigrations(w http.ResponseWriter, r *http.Request) {
	entries, err := s.repo.StatusEntries(r.Context())
	if err != nil {
		s.logger.Error("list migrations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not list migrations")
		return
	}
	if entries == nil {
		entries = []migrate.StatusEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"migrations": entries})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.repo.HistoryEntries(r.Context())
	if err != nil {
		s.logger.Error("list history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not list history")
		return
	}
	if entries == nil {
		entries = []migrate.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]apiError{
		"error": {Code: code, Message: message},
	})
}
