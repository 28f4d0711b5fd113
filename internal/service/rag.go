package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lecternhq/lectern/internal/metrics"
	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/session"
)

// QueryResponse is the answer to one chat query.
type QueryResponse struct {
	Answer    string          `json:"answer"`
	Sources   []models.Source `json:"sources"`
	SessionID string          `json:"session_id"`
}

// CourseStats summarizes the indexed catalog.
type CourseStats struct {
	TotalCourses int      `json:"total_courses"`
	TotalChunks  int      `json:"total_chunks"`
	CourseTitles []string `json:"course_titles"`
}

// RAG ties the generator, session history and catalog together into the
// chat-facing operations.
type RAG struct {
	store     Store
	generator Generator
	sessions  *session.Manager
	collector *metrics.Collector
}

// NewRAG creates the orchestrator.
func NewRAG(store Store, generator Generator, sessions *session.Manager, collector *metrics.Collector) *RAG {
	return &RAG{
		store:     store,
		generator: generator,
		sessions:  sessions,
		collector: collector,
	}
}

// Query answers a user question. An empty sessionID starts a new
// session; the exchange is recorded in the session afterwards either
// way.
func (r *RAG) Query(ctx context.Context, query, sessionID string) QueryResponse {
	start := time.Now()
	defer func() {
		r.collector.Record(metrics.OpQuery, time.Since(start))
	}()

	if sessionID == "" {
		sessionID = r.sessions.Create()
	}
	history := r.sessions.History(sessionID)

	prompt := fmt.Sprintf("Answer this question about course materials: %s", query)
	result := r.generator.Generate(ctx, prompt, history)

	r.sessions.AddExchange(sessionID, query, result.Answer)
	slog.Info("query answered", "session", sessionID, "sources", len(result.Sources))

	return QueryResponse{
		Answer:    result.Answer,
		Sources:   result.Sources,
		SessionID: sessionID,
	}
}

// ClearSession drops a session's conversation history.
func (r *RAG) ClearSession(sessionID string) {
	r.sessions.Clear(sessionID)
}

// Stats returns catalog analytics for the API.
func (r *RAG) Stats(ctx context.Context) (CourseStats, error) {
	courses, err := r.store.CountCourses(ctx)
	if err != nil {
		return CourseStats{}, fmt.Errorf("count courses: %w", err)
	}
	chunks, err := r.store.CountChunks(ctx)
	if err != nil {
		return CourseStats{}, fmt.Errorf("count chunks: %w", err)
	}
	titles, err := r.store.ListCourseTitles(ctx)
	if err != nil {
		return CourseStats{}, fmt.Errorf("list courses: %w", err)
	}
	return CourseStats{
		TotalCourses: courses,
		TotalChunks:  chunks,
		CourseTitles: titles,
	}, nil
}
