package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/lecternhq/lectern/internal/models"
)

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

// fakeStore scripts the store behavior for tool tests.
type fakeStore struct {
	hits       []models.SearchHit
	searchErr  error
	resolved   *models.CourseRef
	resolveErr error
	outline    *models.Course
	outlineErr error

	gotCourseTitle  string
	gotLessonNumber *int
	gotTopK         int
}

func (f *fakeStore) Search(_ context.Context, _ []float32, courseTitle string, lessonNumber *int, topK int) ([]models.SearchHit, error) {
	f.gotCourseTitle = courseTitle
	f.gotLessonNumber = lessonNumber
	f.gotTopK = topK
	return f.hits, f.searchErr
}

func (f *fakeStore) ResolveCourseTitle(_ context.Context, _ string, _ []float32) (*models.CourseRef, error) {
	return f.resolved, f.resolveErr
}

func (f *fakeStore) GetCourseOutline(_ context.Context, _ string) (*models.Course, error) {
	return f.outline, f.outlineErr
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func deps(store *fakeStore) Dependencies {
	return Dependencies{Store: store, Embedder: &fakeEmbedder{}, TopK: 5}
}

func searchCall(t *testing.T, tool *SearchTool, args string) Output {
	t.Helper()
	return tool.Execute(context.Background(), json.RawMessage(args))
}

func TestSearchTool_FormatsHitsAndSources(t *testing.T) {
	store := &fakeStore{
		hits: []models.SearchHit{
			{Content: "first chunk", CourseTitle: "MCP Course", LessonNumber: intPtr(1), LessonLink: strPtr("https://example.com/1")},
			{Content: "second chunk", CourseTitle: "MCP Course", LessonNumber: intPtr(1), LessonLink: strPtr("https://example.com/1")},
			{Content: "other course", CourseTitle: "RAG Course", LessonNumber: nil},
		},
	}
	tool := NewSearchTool(deps(store))

	out := searchCall(t, tool, `{"query": "what is MCP"}`)

	assert.Contains(t, out.Text, "[MCP Course - Lesson 1]\nfirst chunk")
	assert.Contains(t, out.Text, "[MCP Course - Lesson 1]\nsecond chunk")
	assert.Contains(t, out.Text, "[RAG Course]\nother course")
	assert.Equal(t, 3, strings.Count(out.Text, "["))

	// Sources deduped per course/lesson pair.
	require.Len(t, out.Sources, 2)
	assert.Equal(t, "MCP Course", out.Sources[0].Course)
	require.NotNil(t, out.Sources[0].Lesson)
	assert.Equal(t, 1, *out.Sources[0].Lesson)
	require.NotNil(t, out.Sources[0].Link)
	assert.Equal(t, "RAG Course", out.Sources[1].Course)
	assert.Nil(t, out.Sources[1].Lesson)

	assert.Equal(t, 5, store.gotTopK)
}

func TestSearchTool_CourseFilterResolution(t *testing.T) {
	store := &fakeStore{
		resolved: &models.CourseRef{Title: "MCP: Build Rich-Context AI Apps"},
		hits:     []models.SearchHit{{Content: "c", CourseTitle: "MCP: Build Rich-Context AI Apps", LessonNumber: intPtr(2)}},
	}
	tool := NewSearchTool(deps(store))

	out := searchCall(t, tool, `{"query": "servers", "course_name": "MCP", "lesson_number": 2}`)

	assert.Equal(t, "MCP: Build Rich-Context AI Apps", store.gotCourseTitle)
	require.NotNil(t, store.gotLessonNumber)
	assert.Equal(t, 2, *store.gotLessonNumber)
	assert.Contains(t, out.Text, "[MCP: Build Rich-Context AI Apps - Lesson 2]")
}

func TestSearchTool_UnresolvedCourse(t *testing.T) {
	store := &fakeStore{resolved: nil}
	tool := NewSearchTool(deps(store))

	out := searchCall(t, tool, `{"query": "anything", "course_name": "Cooking"}`)

	assert.Equal(t, "No course found matching 'Cooking'", out.Text)
	assert.Empty(t, out.Sources)
}

func TestSearchTool_EmptyResults(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{"no filters", `{"query": "q"}`, "No relevant content found."},
		{"lesson filter", `{"query": "q", "lesson_number": 3}`, "No relevant content found in lesson 3."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := NewSearchTool(deps(&fakeStore{}))
			out := searchCall(t, tool, tt.args)
			assert.Equal(t, tt.want, out.Text)
		})
	}
}

func TestSearchTool_EmptyResultsWithCourseFilter(t *testing.T) {
	store := &fakeStore{resolved: &models.CourseRef{Title: "MCP Course"}}
	tool := NewSearchTool(deps(store))

	out := searchCall(t, tool, `{"query": "q", "course_name": "MCP", "lesson_number": 3}`)

	assert.Equal(t, "No relevant content found in course 'MCP Course' in lesson 3.", out.Text)
}

func TestSearchTool_ErrorsBecomeText(t *testing.T) {
	store := &fakeStore{searchErr: errors.New("search chunks: connection refused")}
	tool := NewSearchTool(deps(store))

	out := searchCall(t, tool, `{"query": "q"}`)

	assert.Equal(t, "search chunks: connection refused", out.Text)
	assert.Empty(t, out.Sources)
}

func TestSearchTool_MissingQuery(t *testing.T) {
	tool := NewSearchTool(deps(&fakeStore{}))

	out := searchCall(t, tool, `{"course_name": "MCP"}`)

	assert.Equal(t, "Missing required parameter: query", out.Text)
}

func TestOutlineTool_FormatsOutline(t *testing.T) {
	store := &fakeStore{
		resolved: &models.CourseRef{Title: "MCP Course"},
		outline: &models.Course{
			Title:      "MCP Course",
			Link:       strPtr("https://example.com/mcp"),
			Instructor: strPtr("Elie Schoppik"),
			Lessons: []models.Lesson{
				{Number: 0, Title: "Introduction"},
				{Number: 1, Title: "Architecture"},
			},
		},
	}
	tool := NewOutlineTool(deps(store))

	out := tool.Execute(context.Background(), json.RawMessage(`{"course_name": "mcp"}`))

	assert.Contains(t, out.Text, "Course: MCP Course")
	assert.Contains(t, out.Text, "Link: https://example.com/mcp")
	assert.Contains(t, out.Text, "Lessons (2):")
	assert.Contains(t, out.Text, "0. Introduction")
	assert.Contains(t, out.Text, "1. Architecture")

	require.Len(t, out.Sources, 1)
	assert.Equal(t, "MCP Course", out.Sources[0].Course)
	assert.Nil(t, out.Sources[0].Lesson)
}

func TestOutlineTool_UnresolvedCourse(t *testing.T) {
	tool := NewOutlineTool(deps(&fakeStore{}))

	out := tool.Execute(context.Background(), json.RawMessage(`{"course_name": "Cooking"}`))

	assert.Equal(t, "No course found matching 'Cooking'", out.Text)
}

func TestRegistry_Dispatch(t *testing.T) {
	store := &fakeStore{hits: []models.SearchHit{{Content: "c", CourseTitle: "A"}}}
	reg := NewRegistry(NewSearchTool(deps(store)), NewOutlineTool(deps(store)))

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "search_course_content", defs[0].Function.Name)
	assert.Equal(t, "get_course_outline", defs[1].Function.Name)

	out := reg.Execute(context.Background(), "search_course_content", json.RawMessage(`{"query": "q"}`))
	assert.Contains(t, out.Text, "[A]\nc")
}

func TestRegistry_UnknownTool(t *testing.T) {
	reg := NewRegistry()

	out := reg.Execute(context.Background(), "delete_everything", nil)

	assert.Equal(t, "Tool 'delete_everything' not found", out.Text)
}

type panicTool struct{}

func (panicTool) Definition() llms.FunctionDefinition {
	return llms.FunctionDefinition{Name: "boom"}
}

func (panicTool) Execute(context.Context, json.RawMessage) Output {
	panic("nil dereference")
}

func TestRegistry_RecoversPanics(t *testing.T) {
	reg := NewRegistry(panicTool{})

	out := reg.Execute(context.Background(), "boom", nil)

	assert.Equal(t, "Tool 'boom' failed: nil dereference", out.Text)
}
