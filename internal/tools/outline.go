package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/lecternhq/lectern/internal/models"
)

// OutlineTool returns a course's title, link and full lesson list, for
// structural questions that content search answers poorly.
type OutlineTool struct {
	deps Dependencies
}

// NewOutlineTool creates the course-outline tool.
func NewOutlineTool(deps Dependencies) *OutlineTool {
	return &OutlineTool{deps: deps}
}

type outlineArgs struct {
	CourseName string `json:"course_name"`
}

func (t *OutlineTool) Definition() llms.FunctionDefinition {
	return llms.FunctionDefinition{
		Name:        "get_course_outline",
		Description: "Get a course's title, link and complete lesson list",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			"required": []string{"course_name"},
		},
	}
}

func (t *OutlineTool) Execute(ctx context.Context, args json.RawMessage) Output {
	var in outlineArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return Output{Text: fmt.Sprintf("Invalid arguments for get_course_outline: %v", err)}
	}
	if strings.TrimSpace(in.CourseName) == "" {
		return Output{Text: "Missing required parameter: course_name"}
	}

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

	course, err := t.deps.Store.GetCourseOutline(ctx, ref.Title)
	if err != nil {
		return Output{Text: err.Error()}
	}
	if course == nil {
		return Output{Text: fmt.Sprintf("No course found matching '%s'", in.CourseName)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", course.Title)
	if course.Link != nil {
		fmt.Fprintf(&b, "Link: %s\n", *course.Link)
	}
	if course.Instructor != nil {
		fmt.Fprintf(&b, "Instructor: %s\n", *course.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(course.Lessons))
	for _, lesson := range course.Lessons {
		fmt.Fprintf(&b, "  %d. %s\n", lesson.Number, lesson.Title)
	}

	return Output{
		Text:    strings.TrimRight(b.String(), "\n"),
		Sources: []models.Source{{Course: course.Title, Link: course.Link}},
	}
}
