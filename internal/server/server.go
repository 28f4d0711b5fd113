// Package server provides the HTTP API for the course chatbot.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lecternhq/lectern/internal/metrics"
	"github.com/lecternhq/lectern/internal/service"
)

// shutdownTimeout bounds how long in-flight requests may run during
// graceful shutdown.
const shutdownTimeout = 10 * time.Second

// RAGService is the orchestrator surface the API exposes.
type RAGService interface {
	Query(ctx context.Context, query, sessionID string) service.QueryResponse
	ClearSession(sessionID string)
	Stats(ctx context.Context) (service.CourseStats, error)
}

// Server is the HTTP API server.
type Server struct {
	rag       RAGService
	collector *metrics.Collector
	http      *http.Server
}

// New creates a server listening on addr.
func New(addr string, rag RAGService, collector *metrics.Collector) *Server {
	s := &Server{
		rag:       rag,
		collector: collector,
	}

	r := chi.NewRouter()
	r.Use(Logging)
	r.Route("/api", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Get("/courses", s.handleCourses)
		r.Get("/stats", s.handleStats)
		r.Delete("/sessions/{id}", s.handleClearSession)
	})
	r.Get("/health", s.handleHealth)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	err := <-errCh
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	resp := s.rag.Query(r.Context(), req.Query, req.SessionID)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	stats, err := s.rag.Stats(r.Context())
	if err != nil {
		slog.Error("course stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load course stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.Snapshot())
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	s.rag.ClearSession(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
