package models

import "time"

// Enrollment links a student to a course at most once.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"studentId"`
	CourseID  string    `db:"course_id" json:"courseId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// EnrollmentDetail carries the enrolled course's title and code.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle string  `db:"course_title" json:"courseTitle"`
	CourseCode  *string `db:"course_code" json:"courseCode,omitempty"`
}

// SelectedChapter is a chapter picked within an enrollment.
type SelectedChapter struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollmentId"`
	ChapterID    string    `db:"chapter_id" json:"chapterId"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// SelectedChapterDetail joins the chapter title for profile rendering.
type SelectedChapterDetail struct {
	SelectedChapter
	ChapterTitle string `db:"chapter_title" json:"chapterTitle"`
}

// PersonalFile is a student's private note attached to a selected chapter.
type PersonalFile struct {
	ID                string    `db:"id" json:"id"`
	SelectedChapterID string    `db:"selected_chapter_id" json:"selectedChapterId"`
	FileID            string    `db:"file_id" json:"fileId"`
	Filename          string    `db:"filename" json:"filename"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}
