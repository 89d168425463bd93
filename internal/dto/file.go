package dto

import (
	"io"
	"time"

	"github.com/noah-isme/studynotes-api/internal/models"
)

// UploadFileRequest carries the multipart form fields of POST /files/upload.
type UploadFileRequest struct {
	StudentID string `form:"studentId" validate:"required"`
	CourseID  string `form:"courseId" validate:"required"`
	ChapterID string `form:"chapterId" validate:"required"`
}

// FileQuery captures GET /files query parameters.
type FileQuery struct {
	StudentID string `form:"studentId"`
	CourseID  string `form:"courseId"`
	ChapterID string `form:"chapterId"`
}

// FileUpload is the payload half of an upload.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// FileDescriptor is the client-facing view of a stored file.
type FileDescriptor struct {
	ID          string     `json:"id"`
	LegacyID    string     `json:"_id"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"contentType"`
	Mimetype    string     `json:"mimetype"`
	Size        int64      `json:"size"`
	UploadDate  time.Time  `json:"uploadDate"`
	StudentID   string     `json:"studentId,omitempty"`
	CourseID    string     `json:"courseId,omitempty"`
	ChapterID   string     `json:"chapterId,omitempty"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// FileList wraps directory results.
type FileList struct {
	Files []FileDescriptor `json:"files"`
}

// PersonalNoteResponse is returned by POST /students/upload-note.
type PersonalNoteResponse struct {
	Message string           `json:"message"`
	File    *FileDescriptor  `json:"file"`
	Student *StudentResponse `json:"student"`
}

// FileDownload bundles a blob stream with its metadata.
type FileDownload struct {
	Content     io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// NewFileDescriptor renders a file record.
func NewFileDescriptor(file *models.File) *FileDescriptor {
	return &FileDescriptor{
		ID:          file.ID,
		LegacyID:    file.ID,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Mimetype:    file.ContentType,
		Size:        file.Size,
		UploadDate:  file.UploadDate,
		StudentID:   file.StudentID,
		CourseID:    file.CourseID,
		ChapterID:   file.ChapterID,
	}
}
