package tools

import (
	"context"

	"github.com/lecternhq/lectern/internal/models"
)

// Store is the slice of the vector store the tools need.
type Store interface {
	Search(ctx context.Context, embedding []float32, courseTitle string, lessonNumber *int, topK int) ([]models.SearchHit, error)
	ResolveCourseTitle(ctx context.Context, name string, nameEmbedding []float32) (*models.CourseRef, error)
	GetCourseOutline(ctx context.Context, title string) (*models.Course, error)
}

// Embedder turns text into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Dependencies bundles what the built-in tools are constructed from.
type Dependencies struct {
	Store    Store
	Embedder Embedder
	TopK     int
}
