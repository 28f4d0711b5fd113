// Package service implements the retrieval-augmented chat orchestration:
// answering queries through the generator and building the index from
// course documents.
package service

import (
	"context"

	"github.com/lecternhq/lectern/internal/llm"
	"github.com/lecternhq/lectern/internal/models"
)

// Store is the slice of the vector store the services need.
type Store interface {
	AddCourse(ctx context.Context, course *models.Course, titleEmbedding []float32) error
	AddChunks(ctx context.Context, chunks []models.CourseChunk, embeddings [][]float32) error
	DeleteCourse(ctx context.Context, title string) error
	CourseExists(ctx context.Context, title string) (bool, error)
	ListCourseTitles(ctx context.Context) ([]string, error)
	CountCourses(ctx context.Context) (int, error)
	CountChunks(ctx context.Context) (int, error)
}

// Embedder turns text into vectors for indexing and querying.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces an answer for a query given conversation history.
type Generator interface {
	Generate(ctx context.Context, query, history string) llm.Result
}
