package dto

import (
	"time"

	"github.com/noah-isme/studynotes-api/internal/models"
)

// CreateCourseRequest is the body of POST /courses/create.
type CreateCourseRequest struct {
	Title      string `json:"title" validate:"required"`
	CourseCode string `json:"course_code"`
	StudentID  string `json:"studentId" validate:"required"`
}

// AddChapterRequest is the body of POST /chapters/add.
type AddChapterRequest struct {
	Title     string `json:"title" validate:"required"`
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
}

// CourseResponse renders a course with its chapters expanded.
type CourseResponse struct {
	ID         string            `json:"id"`
	LegacyID   string            `json:"_id"`
	Title      string            `json:"title"`
	CourseCode *string           `json:"course_code,omitempty"`
	StudentID  string            `json:"studentId"`
	Chapters   []ChapterResponse `json:"chapters"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// ChapterResponse renders a chapter with its reference lists.
type ChapterResponse struct {
	ID              string    `json:"id"`
	LegacyID        string    `json:"_id"`
	Title           string    `json:"title"`
	StudentID       string    `json:"studentId"`
	CourseID        string    `json:"courseId"`
	FileIDs         []string  `json:"filesIds"`
	ConversationIDs []string  `json:"conversationsIds"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CourseCreatedResponse is returned by POST /courses/create.
type CourseCreatedResponse struct {
	Message string          `json:"message"`
	Course  *CourseResponse `json:"course"`
}

// ChapterCreatedResponse is returned by POST /chapters/add.
type ChapterCreatedResponse struct {
	Message string           `json:"message"`
	Chapter *ChapterResponse `json:"chapter"`
}

// NewCourseResponse renders course with the given chapters.
func NewCourseResponse(course *models.Course, chapters []models.Chapter) *CourseResponse {
	resp := &CourseResponse{
		ID:         course.ID,
		LegacyID:   course.ID,
		Title:      course.Title,
		CourseCode: course.CourseCode,
		StudentID:  course.StudentID,
		Chapters:   make([]ChapterResponse, 0, len(chapters)),
		CreatedAt:  course.CreatedAt,
	}
	for i := range chapters {
		resp.Chapters = append(resp.Chapters, *NewChapterResponse(&chapters[i]))
	}
	return resp
}

// NewChapterResponse renders a chapter. Nil reference lists become empty.
func NewChapterResponse(chapter *models.Chapter) *ChapterResponse {
	files := []string(chapter.FileIDs)
	if files == nil {
		files = []string{}
	}
	conversations := []string(chapter.ConversationIDs)
	if conversations == nil {
		conversations = []string{}
	}
	return &ChapterResponse{
		ID:              chapter.ID,
		LegacyID:        chapter.ID,
		Title:           chapter.Title,
		StudentID:       chapter.StudentID,
		CourseID:        chapter.CourseID,
		FileIDs:         files,
		ConversationIDs: conversations,
		CreatedAt:       chapter.CreatedAt,
	}
}
