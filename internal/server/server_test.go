package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternhq/lectern/internal/metrics"
	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/service"
)

type stubRAG struct {
	response service.QueryResponse
	stats    service.CourseStats
	statsErr error

	gotQuery   string
	gotSession string
	cleared    []string
}

func (s *stubRAG) Query(_ context.Context, query, sessionID string) service.QueryResponse {
	s.gotQuery = query
	s.gotSession = sessionID
	return s.response
}

func (s *stubRAG) ClearSession(sessionID string) {
	s.cleared = append(s.cleared, sessionID)
}

func (s *stubRAG) Stats(context.Context) (service.CourseStats, error) {
	return s.stats, s.statsErr
}

func doRequest(t *testing.T, rag *stubRAG, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	srv := New(":0", rag, metrics.NewCollector())

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestQueryEndpoint(t *testing.T) {
	lesson := 1
	link := "https://example.com/1"
	rag := &stubRAG{response: service.QueryResponse{
		Answer:    "MCP is a protocol.",
		Sources:   []models.Source{{Course: "MCP Course", Lesson: &lesson, Link: &link}},
		SessionID: "session-1",
	}}

	rec := doRequest(t, rag, http.MethodPost, "/api/query", `{"query": "What is MCP?", "session_id": "session-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "What is MCP?", rag.gotQuery)
	assert.Equal(t, "session-1", rag.gotSession)

	var resp service.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MCP is a protocol.", resp.Answer)
	assert.Equal(t, "session-1", resp.SessionID)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "MCP Course", resp.Sources[0].Course)
}

func TestQueryEndpoint_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing query", `{"session_id": "s"}`},
		{"blank query", `{"query": "   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, &stubRAG{}, http.MethodPost, "/api/query", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCoursesEndpoint(t *testing.T) {
	rag := &stubRAG{stats: service.CourseStats{
		TotalCourses: 2,
		TotalChunks:  17,
		CourseTitles: []string{"A", "B"},
	}}

	rec := doRequest(t, rag, http.MethodGet, "/api/courses", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var stats service.CourseStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalCourses)
	assert.Equal(t, []string{"A", "B"}, stats.CourseTitles)
}

func TestCoursesEndpoint_StoreFailure(t *testing.T) {
	rag := &stubRAG{statsErr: assert.AnError}

	rec := doRequest(t, rag, http.MethodGet, "/api/courses", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	rec := doRequest(t, &stubRAG{}, http.MethodGet, "/api/stats", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.NotNil(t, snap.Operations)
}

func TestClearSessionEndpoint(t *testing.T) {
	rag := &stubRAG{}

	rec := doRequest(t, rag, http.MethodDelete, "/api/sessions/session-42", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"session-42"}, rag.cleared)
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, &stubRAG{}, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
