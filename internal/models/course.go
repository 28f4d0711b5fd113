// Package models defines the core domain types shared across lectern.
package models

// Lesson is a single numbered lesson within a course.
type Lesson struct {
	Number int     `json:"number"`
	Title  string  `json:"title"`
	Link   *string `json:"link,omitempty"`
}

// Course represents one course document. The title is the identity key:
// a course is indexed at most once per title.
type Course struct {
	Title      string   `json:"title"`
	Link       *string  `json:"link,omitempty"`
	Instructor *string  `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson returns the lesson with the given number, or nil.
func (c *Course) Lesson(number int) *Lesson {
	for i := range c.Lessons {
		if c.Lessons[i].Number == number {
			return &c.Lessons[i]
		}
	}
	return nil
}

// CourseChunk is a bounded span of course text prepared for embedding.
// Index is contiguous and course-scoped, starting at 0. The parser only
// chunks lesson bodies, so LessonNumber is always set for parsed
// documents; it stays optional because the storage schema and search
// results treat it as such.
type CourseChunk struct {
	Content      string  `json:"content"`
	CourseTitle  string  `json:"course_title"`
	LessonNumber *int    `json:"lesson_number,omitempty"`
	LessonLink   *string `json:"lesson_link,omitempty"`
	Index        int     `json:"index"`
}
