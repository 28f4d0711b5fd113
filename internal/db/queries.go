package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/lecternhq/lectern/internal/metrics"
	"github.com/lecternhq/lectern/internal/models"
)

// maxResolveDistance is the cosine-distance ceiling for fuzzy course-name
// resolution. Anything farther is treated as "no matching course".
const maxResolveDistance = 0.75

// knnEF is the HNSW search effort parameter; higher improves recall.
const knnEF = 40

type countRow struct {
	Count int `json:"count"`
}

type courseRow struct {
	Title      string          `json:"title"`
	Link       *string         `json:"link,omitempty"`
	Instructor *string         `json:"instructor,omitempty"`
	Lessons    []models.Lesson `json:"lessons"`
}

type resolveRow struct {
	Title    string  `json:"title"`
	Link     *string `json:"link,omitempty"`
	Distance float64 `json:"distance"`
}

// AddCourse inserts a course catalog entry with its title embedding.
// The unique title index rejects duplicates; callers are expected to
// check CourseExists first.
func (c *Client) AddCourse(ctx context.Context, course *models.Course, titleEmbedding []float32) error {
	lessons := make([]map[string]any, 0, len(course.Lessons))
	for _, l := range course.Lessons {
		lesson := map[string]any{
			"number": l.Number,
			"title":  l.Title,
		}
		if l.Link != nil {
			lesson["link"] = *l.Link
		}
		lessons = append(lessons, lesson)
	}

	vars := map[string]any{
		"title":     course.Title,
		"lessons":   lessons,
		"embedding": titleEmbedding,
	}
	if course.Link != nil {
		vars["link"] = *course.Link
	}
	if course.Instructor != nil {
		vars["instructor"] = *course.Instructor
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE course CONTENT {
			title: $title,
			link: $link,
			instructor: $instructor,
			lessons: $lessons,
			title_embedding: $embedding
		}
	`, vars)
	if err != nil {
		return fmt.Errorf("add course %q: %w", course.Title, err)
	}
	return nil
}

// AddChunks stores chunks with their embeddings. Chunks and embeddings
// must be parallel slices.
func (c *Client) AddChunks(ctx context.Context, chunks []models.CourseChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("add chunks: %d chunks but %d embeddings", len(chunks), len(embeddings))
	}

	for i, chunk := range chunks {
		vars := map[string]any{
			"content":      chunk.Content,
			"course_title": chunk.CourseTitle,
			"chunk_index":  chunk.Index,
			"embedding":    embeddings[i],
		}
		if chunk.LessonNumber != nil {
			vars["lesson_number"] = *chunk.LessonNumber
		}
		if chunk.LessonLink != nil {
			vars["lesson_link"] = *chunk.LessonLink
		}

		_, err := surrealdb.Query[any](ctx, c.db, `
			CREATE chunk CONTENT {
				content: $content,
				course_title: $course_title,
				lesson_number: $lesson_number,
				lesson_link: $lesson_link,
				chunk_index: $chunk_index,
				embedding: $embedding
			}
		`, vars)
		if err != nil {
			return fmt.Errorf("add chunk %d of %q: %w", chunk.Index, chunk.CourseTitle, err)
		}
	}
	return nil
}

// Search returns up to topK chunks nearest to the query embedding in
// ascending cosine-distance order, optionally restricted to a course
// title and lesson number.
func (c *Client) Search(ctx context.Context, embedding []float32, courseTitle string, lessonNumber *int, topK int) ([]models.SearchHit, error) {
	if topK <= 0 {
		topK = 5
	}

	courseClause := ""
	lessonClause := ""
	vars := map[string]any{"emb": embedding}
	if courseTitle != "" {
		courseClause = "AND course_title = $course"
		vars["course"] = courseTitle
	}
	if lessonNumber != nil {
		lessonClause = "AND lesson_number = $lesson"
		vars["lesson"] = *lessonNumber
	}

	sql := fmt.Sprintf(`
		SELECT content, course_title, lesson_number, lesson_link,
		       vector::distance::knn() AS distance
		FROM chunk
		WHERE embedding <|%d,%d|> $emb %s %s
		ORDER BY distance ASC
	`, topK, knnEF, courseClause, lessonClause)

	start := time.Now()
	results, err := surrealdb.Query[[]models.SearchHit](ctx, c.db, sql, vars)
	c.collector.Record(metrics.OpSearch, time.Since(start))

	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.SearchHit{}, nil
	}
	return (*results)[0].Result, nil
}

// DeleteCourse removes a course's catalog entry and all of its chunks.
// Deleting an unknown title is a no-op.
func (c *Client) DeleteCourse(ctx context.Context, title string) error {
	vars := map[string]any{"title": title}
	if _, err := surrealdb.Query[any](ctx, c.db, `
		DELETE chunk WHERE course_title = $title
	`, vars); err != nil {
		return fmt.Errorf("delete chunks of %q: %w", title, err)
	}
	if _, err := surrealdb.Query[any](ctx, c.db, `
		DELETE course WHERE title = $title
	`, vars); err != nil {
		return fmt.Errorf("delete course %q: %w", title, err)
	}
	return nil
}

// CourseExists reports whether a course with this exact title is indexed.
func (c *Client) CourseExists(ctx context.Context, title string) (bool, error) {
	results, err := surrealdb.Query[[]countRow](ctx, c.db, `
		SELECT count() AS count FROM course WHERE title = $title GROUP ALL
	`, map[string]any{"title": title})
	if err != nil {
		return false, fmt.Errorf("course exists: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return false, nil
	}
	return (*results)[0].Result[0].Count > 0, nil
}

// ListCourseTitles returns all indexed course titles.
func (c *Client) ListCourseTitles(ctx context.Context) ([]string, error) {
	results, err := surrealdb.Query[[]string](ctx, c.db, `
		SELECT VALUE title FROM course ORDER BY title
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list course titles: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []string{}, nil
	}
	return (*results)[0].Result, nil
}

// ResolveCourseTitle maps a user-supplied course name to a stored course.
// Exact title match wins; otherwise the nearest title embedding within
// maxResolveDistance. Returns nil when nothing matches.
func (c *Client) ResolveCourseTitle(ctx context.Context, name string, nameEmbedding []float32) (*models.CourseRef, error) {
	exact, err := surrealdb.Query[[]resolveRow](ctx, c.db, `
		SELECT title, link FROM course WHERE title = $name
	`, map[string]any{"name": name})
	if err != nil {
		return nil, fmt.Errorf("resolve course title: %w", err)
	}
	if exact != nil && len(*exact) > 0 && len((*exact)[0].Result) > 0 {
		row := (*exact)[0].Result[0]
		return &models.CourseRef{Title: row.Title, Link: row.Link}, nil
	}

	sql := fmt.Sprintf(`
		SELECT title, link, vector::distance::knn() AS distance
		FROM course
		WHERE title_embedding <|1,%d|> $emb
		ORDER BY distance ASC
	`, knnEF)
	fuzzy, err := surrealdb.Query[[]resolveRow](ctx, c.db, sql, map[string]any{"emb": nameEmbedding})
	if err != nil {
		return nil, fmt.Errorf("resolve course title: %w", err)
	}
	if fuzzy == nil || len(*fuzzy) == 0 || len((*fuzzy)[0].Result) == 0 {
		return nil, nil
	}

	row := (*fuzzy)[0].Result[0]
	if row.Distance > maxResolveDistance {
		return nil, nil
	}
	return &models.CourseRef{Title: row.Title, Link: row.Link}, nil
}

// GetCourseOutline returns the stored course with its lesson list, or nil
// when the title is not indexed.
func (c *Client) GetCourseOutline(ctx context.Context, title string) (*models.Course, error) {
	results, err := surrealdb.Query[[]courseRow](ctx, c.db, `
		SELECT title, link, instructor, lessons FROM course WHERE title = $title
	`, map[string]any{"title": title})
	if err != nil {
		return nil, fmt.Errorf("get course outline: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}

	row := (*results)[0].Result[0]
	return &models.Course{
		Title:      row.Title,
		Link:       row.Link,
		Instructor: row.Instructor,
		Lessons:    row.Lessons,
	}, nil
}

// CountCourses returns the number of indexed courses.
func (c *Client) CountCourses(ctx context.Context) (int, error) {
	return c.countTable(ctx, "course")
}

// CountChunks returns the number of stored chunks.
func (c *Client) CountChunks(ctx context.Context) (int, error) {
	return c.countTable(ctx, "chunk")
}

func (c *Client) countTable(ctx context.Context, table string) (int, error) {
	sql := fmt.Sprintf("SELECT count() AS count FROM %s GROUP ALL", table)
	results, err := surrealdb.Query[[]countRow](ctx, c.db, sql, nil)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}
