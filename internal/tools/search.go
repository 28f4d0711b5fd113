package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/lecternhq/lectern/internal/models"
)

// SearchTool answers content questions by semantic search over the
// indexed course chunks.
type SearchTool struct {
	deps Dependencies
}

// NewSearchTool creates the course-content search tool.
func NewSearchTool(deps Dependencies) *SearchTool {
	return &SearchTool{deps: deps}
}

type searchArgs struct {
	Query        string `json:"query"`
	CourseName   string `json:"course_name"`
	LessonNumber *int   `json:"lesson_number"`
}

func (t *SearchTool) Definition() llms.FunctionDefinition {
	return llms.FunctionDefinition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for in course content",
				},
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]any{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (t *SearchTool) Execute(ctx context.Context, args json.RawMessage) Output {
	var in searchArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return Output{Text: fmt.Sprintf("Invalid arguments for search_course_content: %v", err)}
	}
	if strings.TrimSpace(in.Query) == "" {
		return Output{Text: "Missing required parameter: query"}
	}

	// Resolve a partial course name to the stored title before filtering.
	courseTitle := ""
	if in.CourseName != "" {
		nameEmb, err := t.deps.Embedder.Embed(ctx, in.CourseName)
		if err != nil {
			return Output{Text: err.Error()}
		}
		ref, err := t.deps.Store.ResolveCourseTitle(ctx, in.CourseName, nameEmb)
		if err != nil {
			return Output{Text: err.Error()}
		}
		if ref == nil {
			return Output{Text: fmt.Sprintf("No course found matching '%s'", in.CourseName)}
		}
		courseTitle = ref.Title
	}

	queryEmb, err := t.deps.Embedder.Embed(ctx, in.Query)
	if err != nil {
		return Output{Text: err.Error()}
	}

	hits, err := t.deps.Store.Search(ctx, queryEmb, courseTitle, in.LessonNumber, t.deps.TopK)
	if err != nil {
		return Output{Text: err.Error()}
	}
	if len(hits) == 0 {
		return Output{Text: emptyResultMessage(courseTitle, in.LessonNumber)}
	}

	return formatHits(hits)
}

func emptyResultMessage(courseTitle string, lessonNumber *int) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if courseTitle != "" {
		fmt.Fprintf(&b, " in course '%s'", courseTitle)
	}
	if lessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *lessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

// formatHits renders each hit as a "[Course - Lesson N]" block and
// collects one source per distinct course/lesson pair.
func formatHits(hits []models.SearchHit) Output {
	blocks := make([]string, 0, len(hits))
	sources := make([]models.Source, 0, len(hits))
	seen := make(map[string]bool, len(hits))

	for _, hit := range hits {
		header := hit.CourseTitle
		if hit.LessonNumber != nil {
			header = fmt.Sprintf("%s - Lesson %d", hit.CourseTitle, *hit.LessonNumber)
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", header, hit.Content))

		if seen[header] {
			continue
		}
		seen[header] = true
		sources = append(sources, models.Source{
			Course: hit.CourseTitle,
			Lesson: hit.LessonNumber,
			Link:   hit.LessonLink,
		})
	}

	return Output{
		Text:    strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}
