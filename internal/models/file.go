package models

import "time"

// File is the queryable index entry for an uploaded blob. ID doubles as the
// blob key.
type File struct {
	ID          string    `db:"id" json:"id"`
	Filename    string    `db:"filename" json:"filename"`
	ContentType string    `db:"content_type" json:"contentType"`
	Size        int64     `db:"size" json:"size"`
	StudentID   string    `db:"student_id" json:"studentId"`
	CourseID    string    `db:"course_id" json:"courseId"`
	ChapterID   string    `db:"chapter_id" json:"chapterId"`
	UploadDate  time.Time `db:"upload_date" json:"uploadDate"`
}

// FileFilter narrows directory queries. Empty fields are ignored.
type FileFilter struct {
	StudentID string
	CourseID  string
	ChapterID string
}
