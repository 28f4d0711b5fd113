package models

import "fmt"

// SearchHit is one chunk returned from a vector search, ordered by
// ascending cosine distance within its result set.
type SearchHit struct {
	Content      string  `json:"content"`
	CourseTitle  string  `json:"course_title"`
	LessonNumber *int    `json:"lesson_number,omitempty"`
	LessonLink   *string `json:"lesson_link,omitempty"`
	Distance     float64 `json:"distance"`
}

// CourseRef identifies a stored course after name resolution.
type CourseRef struct {
	Title string  `json:"title"`
	Link  *string `json:"link,omitempty"`
}

// Source is a citation attached to an answer. One list per query
// response, ephemeral.
type Source struct {
	Course string  `json:"course"`
	Lesson *int    `json:"lesson,omitempty"`
	Link   *string `json:"link,omitempty"`
}

// Label renders the source as display text, e.g. "Intro to ML - Lesson 3".
func (s Source) Label() string {
	if s.Lesson != nil {
		return fmt.Sprintf("%s - Lesson %d", s.Course, *s.Lesson)
	}
	return s.Course
}
