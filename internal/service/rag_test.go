package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternhq/lectern/internal/llm"
	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/session"
)

// fakeGenerator records the prompts and histories it was called with.
type fakeGenerator struct {
	result    llm.Result
	prompts   []string
	histories []string
}

func (f *fakeGenerator) Generate(_ context.Context, query, history string) llm.Result {
	f.prompts = append(f.prompts, query)
	f.histories = append(f.histories, history)
	return f.result
}

func newTestRAG(gen *fakeGenerator, store Store) *RAG {
	return NewRAG(store, gen, session.NewManager(2), nil)
}

func TestQuery_NewSessionAndPromptWrap(t *testing.T) {
	gen := &fakeGenerator{result: llm.Result{
		Answer:  "MCP is a protocol.",
		Sources: []models.Source{{Course: "MCP Course"}},
	}}
	rag := newTestRAG(gen, &fakeStore{})

	resp := rag.Query(context.Background(), "What is MCP?", "")

	assert.Equal(t, "MCP is a protocol.", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.NotEmpty(t, resp.SessionID)

	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "Answer this question about course materials: What is MCP?", gen.prompts[0])
	assert.Empty(t, gen.histories[0])
}

func TestQuery_HistoryCarriesAcrossTurns(t *testing.T) {
	gen := &fakeGenerator{result: llm.Result{Answer: "an answer"}}
	rag := newTestRAG(gen, &fakeStore{})

	first := rag.Query(context.Background(), "first question", "")
	rag.Query(context.Background(), "second question", first.SessionID)

	require.Len(t, gen.histories, 2)
	// History records the raw user question, not the wrapped prompt.
	assert.Equal(t, "User: first question\nAssistant: an answer", gen.histories[1])
}

func TestQuery_ReusesProvidedSession(t *testing.T) {
	gen := &fakeGenerator{result: llm.Result{Answer: "a"}}
	rag := newTestRAG(gen, &fakeStore{})

	resp := rag.Query(context.Background(), "q", "my-session")

	assert.Equal(t, "my-session", resp.SessionID)
}

func TestClearSession(t *testing.T) {
	gen := &fakeGenerator{result: llm.Result{Answer: "a"}}
	rag := newTestRAG(gen, &fakeStore{})

	resp := rag.Query(context.Background(), "q", "")
	rag.ClearSession(resp.SessionID)
	rag.Query(context.Background(), "q2", resp.SessionID)

	assert.Empty(t, gen.histories[1])
}

func TestStats(t *testing.T) {
	store := &fakeStore{
		courses: 2,
		chunks:  40,
		titles:  []string{"A", "B"},
	}
	rag := newTestRAG(&fakeGenerator{}, store)

	stats, err := rag.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCourses)
	assert.Equal(t, 40, stats.TotalChunks)
	assert.Equal(t, []string{"A", "B"}, stats.CourseTitles)
}
