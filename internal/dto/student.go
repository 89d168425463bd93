package dto

import (
	"time"

	"github.com/noah-isme/studynotes-api/internal/models"
)

// RegisterStudentRequest is the body of POST /students/register. Password is
// accepted for compatibility and never stored.
type RegisterStudentRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty"`
}

// EnrollRequest enrolls a student into a course.
type EnrollRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
}

// ChapterSelectionRequest adds or removes a chapter within an enrollment.
type ChapterSelectionRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
	ChapterID string `json:"chapterId" validate:"required"`
}

// StudentResponse is the public view of a student record.
type StudentResponse struct {
	ID          string           `json:"id"`
	LegacyID    string           `json:"_id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Enrollments []EnrollmentView `json:"enrolledCourses"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// EnrollmentView renders one enrollment with its selected chapters.
type EnrollmentView struct {
	CourseID         string                `json:"courseId"`
	CourseTitle      string                `json:"courseTitle"`
	CourseCode       *string               `json:"courseCode,omitempty"`
	SelectedChapters []SelectedChapterView `json:"selectedChapters"`
}

// SelectedChapterView renders a selected chapter and its personal notes.
type SelectedChapterView struct {
	ChapterID     string             `json:"chapterId"`
	Title         string             `json:"title"`
	PersonalFiles []PersonalFileView `json:"personalFiles"`
}

// PersonalFileView references a personal note.
type PersonalFileView struct {
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
}

// StudentMessageResponse pairs an outcome message with the refreshed profile.
type StudentMessageResponse struct {
	Message string           `json:"message"`
	Student *StudentResponse `json:"student"`
}

// NewStudentResponse renders a bare student with no enrollments.
func NewStudentResponse(student *models.Student) *StudentResponse {
	return &StudentResponse{
		ID:          student.ID,
		LegacyID:    student.ID,
		Name:        student.Name,
		Email:       student.Email,
		Enrollments: []EnrollmentView{},
		CreatedAt:   student.CreatedAt,
	}
}
