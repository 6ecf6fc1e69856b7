// Package courses manages the teaching material attached to lessons:
// rich-text content with optional image, audio, PDF and video attachments,
// plus search and autocomplete over the collegian's class. Courses are
// authored by teachers and unlock at a per-course date.
package courses

import (
	"mime/multipart"
	"time"
)

// Course is one piece of teaching material attached to a lesson. File
// columns hold web paths relative to the media root; nil means no
// attachment of that kind.
type Course struct {
	ID         int64     `json:"id"`
	LessonID   int64     `json:"id_lesson"`
	UnlockDate time.Time `json:"unlock_date"`
	Subject    string    `json:"subject"`
	Summary    string    `json:"summary"`
	Content    string    `json:"content"`
	Video      *string   `json:"video,omitempty"`
	Link       *string   `json:"link,omitempty"`
	Image      *string   `json:"image,omitempty"`
	Audio      *string   `json:"audio,omitempty"`
	PDF        *string   `json:"pdf,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// Accessible is computed per request: true once UnlockDate has passed.
	Accessible bool `json:"accessible"`
}

// CourseRequest holds the course form. The lesson id stays a string so an
// empty selection is distinguishable from a malformed one. Uploads ride in
// separately as multipart file headers.
type CourseRequest struct {
	ID         string `json:"id" form:"id"`
	LessonID   string `json:"idLesson" form:"idLesson"`
	UnlockDate string `json:"unlockdate" form:"unlockdate"`
	Subject    string `json:"subject" form:"subject"`
	Summary    string `json:"summary" form:"summary"`
	Content    string `json:"content" form:"content"`
	Video      string `json:"video" form:"video"`
	Link       string `json:"link" form:"link"`
}

// CourseInput is the assembled submission: form fields plus the optional
// uploads. A nil file header means no new file of that kind.
type CourseInput struct {
	ID         string
	LessonID   string
	UnlockDate string
	Subject    string
	Summary    string
	Content    string
	Video      string
	Link       string

	Image *multipart.FileHeader
	Audio *multipart.FileHeader
	PDF   *multipart.FileHeader
}

// LessonCourses is a lesson's material listing, for both the collegian and
// the teacher views.
type LessonCourses struct {
	LessonID   int64    `json:"lesson_id"`
	LessonName string   `json:"lesson_name"`
	Courses    []Course `json:"courses"`
}
