package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/lecternhq/lectern/internal/models"
)

// ErrMissingTitle reports a course document without a "Course Title:" line.
var ErrMissingTitle = errors.New("course document has no Course Title line")

var lessonMarker = regexp.MustCompile(`(?i)^Lesson\s+(\d+):\s*(.*)$`)

const (
	titlePrefix      = "course title:"
	courseLinkPrefix = "course link:"
	instructorPrefix = "course instructor:"
	lessonLinkPrefix = "lesson link:"
)

// LoadCourseDocument parses the course document at path.
func LoadCourseDocument(path string, cfg ChunkConfig) (*models.Course, []models.CourseChunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open course document: %w", err)
	}
	defer f.Close()
	return ParseCourseDocument(f, cfg)
}

// ParseCourseDocument parses a structured course file: a metadata header
// (Course Title required; Course Link and Course Instructor optional,
// order-independent) followed by "Lesson N: Title" sections, each with an
// optional "Lesson Link:" line and free-form body. Lesson bodies are
// chunked and enriched with a course/lesson prefix; chunk indices are
// contiguous and course-scoped. A document with a title but no lesson
// markers parses successfully and yields no chunks.
func ParseCourseDocument(r io.Reader, cfg ChunkConfig) (*models.Course, []models.CourseChunk, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read course document: %w", err)
	}

	course, rest, err := parseHeader(lines)
	if err != nil {
		return nil, nil, err
	}

	chunks := parseLessons(course, rest, cfg)
	return course, chunks, nil
}

// parseHeader consumes the leading metadata block and returns the course
// plus the remaining lines. The block spans at most the first three
// non-empty lines and ends early at the first unlabeled line or lesson
// marker.
func parseHeader(lines []string) (*models.Course, []string, error) {
	course := &models.Course{}
	seen := 0
	i := 0

	for ; i < len(lines) && seen < 3; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if lessonMarker.MatchString(line) {
			break
		}

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, titlePrefix):
			course.Title = strings.TrimSpace(line[len(titlePrefix):])
		case strings.HasPrefix(lower, courseLinkPrefix):
			link := strings.TrimSpace(line[len(courseLinkPrefix):])
			if link != "" {
				course.Link = &link
			}
		case strings.HasPrefix(lower, instructorPrefix):
			instructor := strings.TrimSpace(line[len(instructorPrefix):])
			if instructor != "" {
				course.Instructor = &instructor
			}
		default:
			// Unlabeled line ends the header block.
			seen = 3
			i--
			continue
		}
		seen++
	}

	if course.Title == "" {
		return nil, nil, ErrMissingTitle
	}
	return course, lines[i:], nil
}

// parseLessons splits the body into lesson sections and chunks each one.
func parseLessons(course *models.Course, lines []string, cfg ChunkConfig) []models.CourseChunk {
	var chunks []models.CourseChunk
	var current *models.Lesson
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		lesson := *current
		course.Lessons = append(course.Lessons, lesson)
		for _, text := range Chunk(strings.Join(body, "\n"), cfg) {
			n := lesson.Number
			chunks = append(chunks, models.CourseChunk{
				Content:      enrich(course.Title, lesson.Number, text),
				CourseTitle:  course.Title,
				LessonNumber: &n,
				LessonLink:   lesson.Link,
				Index:        len(chunks),
			})
		}
		body = body[:0]
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if m := lessonMarker.FindStringSubmatch(line); m != nil {
			flush()
			number, _ := strconv.Atoi(m[1])
			current = &models.Lesson{Number: number, Title: strings.TrimSpace(m[2])}

			// Optional "Lesson Link:" on the next non-empty line.
			if j := nextNonEmpty(lines, i+1); j >= 0 {
				next := strings.TrimSpace(lines[j])
				if lower := strings.ToLower(next); strings.HasPrefix(lower, lessonLinkPrefix) {
					link := strings.TrimSpace(next[len(lessonLinkPrefix):])
					if link != "" {
						current.Link = &link
					}
					i = j
				}
			}
			continue
		}

		if current != nil {
			body = append(body, lines[i])
		}
	}
	flush()

	return chunks
}

func nextNonEmpty(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}

// enrich prepends the course/lesson context so the chunk embeds with its
// provenance, improving retrieval without changing the source meaning.
func enrich(courseTitle string, lessonNumber int, text string) string {
	return fmt.Sprintf("Course %s Lesson %d content: %s", courseTitle, lessonNumber, text)
}
