package service

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studynotes-api/internal/dto"
	"github.com/noah-isme/studynotes-api/internal/models"
	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
	"github.com/noah-isme/studynotes-api/pkg/storage"
)

type notesFixture struct {
	students *studentStoreStub
	courses  *courseStoreStub
	chapters *chapterStoreStub
	files    *fileStoreStub
	blobs    *blobStoreStub
	gate     *gateStub
	orphans  *orphanRecorder
	profiles *StudentService
	service  *FileService

	studentID string
	courseID  string
	chapterID string
}

func newNotesFixture(t *testing.T) *notesFixture {
	t.Helper()
	f := &notesFixture{
		students: newStudentStoreStub(),
		courses:  newCourseStoreStub(),
		chapters: newChapterStoreStub(),
		files:    newFileStoreStub(),
		blobs:    newBlobStoreStub(),
		orphans:  &orphanRecorder{},
	}
	f.students.courses = f.courses
	f.students.chapters = f.chapters
	f.gate = &gateStub{store: f.blobs}
	f.profiles = NewStudentService(f.students, nil, nil)
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	f.service = NewFileService(f.files, f.chapters, f.students, f.profiles, f.gate, signer, f.orphans, nil, nil, nil, nil,
		FileServiceConfig{MaxFileSize: 1024, APIPrefix: "/api"})

	ctx := context.Background()
	student := &models.Student{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, f.students.Create(ctx, student))
	course := &models.Course{Title: "Algorithms", StudentID: student.ID}
	require.NoError(t, f.courses.Create(ctx, course))
	chapter := &models.Chapter{Title: "Sorting", StudentID: student.ID, CourseID: course.ID}
	require.NoError(t, f.chapters.Create(ctx, chapter))
	f.studentID, f.courseID, f.chapterID = student.ID, course.ID, chapter.ID
	return f
}

func (f *notesFixture) request() dto.UploadFileRequest {
	return dto.UploadFileRequest{StudentID: f.studentID, CourseID: f.courseID, ChapterID: f.chapterID}
}

func pdfUpload(body string) dto.FileUpload {
	return dto.FileUpload{Filename: "notes.pdf", ContentType: "application/pdf", Size: int64(len(body)), Content: strings.NewReader(body)}
}

func requireStatus(t *testing.T, err error, status int) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, status, appErr.Status, appErr.Message)
	return appErr
}

func TestFileServiceUploadThenList(t *testing.T) {
	f := newNotesFixture(t)
	ctx := context.Background()

	desc, err := f.service.Upload(ctx, f.request(), pdfUpload("%PDF-1.4 sorting"))
	require.NoError(t, err)
	assert.Equal(t, desc.ID, desc.LegacyID)
	assert.Equal(t, "notes.pdf", desc.Filename)
	assert.Equal(t, "application/pdf", desc.Mimetype)
	assert.Equal(t, int64(16), desc.Size)

	assert.Equal(t, []byte("%PDF-1.4 sorting"), f.blobs.blobs[desc.ID])
	assert.Equal(t, f.chapterID, f.blobs.meta[desc.ID].ChapterID)
	chapter, err := f.chapters.FindByID(ctx, f.chapterID)
	require.NoError(t, err)
	assert.Equal(t, []string{desc.ID}, []string(chapter.FileIDs))

	list, hit, err := f.service.List(ctx, dto.FileQuery{ChapterID: f.chapterID})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, list.Files, 1)
	assert.Equal(t, desc.ID, list.Files[0].ID)

	empty, _, err := f.service.List(ctx, dto.FileQuery{ChapterID: "chapter-missing"})
	require.NoError(t, err)
	assert.NotNil(t, empty.Files)
	assert.Empty(t, empty.Files)

	all, _, err := f.service.List(ctx, dto.FileQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Files, 1)
}

func TestFileServiceUploadKeepsUploadOrder(t *testing.T) {
	f := newNotesFixture(t)
	ctx := context.Background()

	first, err := f.service.Upload(ctx, f.request(), pdfUpload("first"))
	require.NoError(t, err)
	second, err := f.service.Upload(ctx, f.request(), pdfUpload("second"))
	require.NoError(t, err)

	chapter, err := f.chapters.FindByID(ctx, f.chapterID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, []string(chapter.FileIDs))
	subject, ok := models.FirstUploaded(chapter)
	require.True(t, ok)
	assert.Equal(t, first.ID, subject)
}

func TestFileServiceUploadRejectsBadPayload(t *testing.T) {
	f := newNotesFixture(t)
	ctx := context.Background()

	_, err := f.service.Upload(ctx, f.request(), dto.FileUpload{})
	appErr := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "No file uploaded", appErr.Message)

	_, err = f.service.Upload(ctx, f.request(), pdfUpload(strings.Repeat("x", 2048)))
	requireStatus(t, err, http.StatusBadRequest)

	req := f.request()
	req.CourseID = ""
	_, err = f.service.Upload(ctx, req, pdfUpload("content"))
	appErr = requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "courseId is required", appErr.Message)

	assert.Empty(t, f.blobs.blobs)
	assert.Empty(t, f.files.files)
}

func TestFileServiceUploadStoreNotReady(t *testing.T) {
	f := newNotesFixture(t)
	f.gate.store = nil

	_, err := f.service.Upload(context.Background(), f.request(), pdfUpload("content"))
	require.ErrorIs(t, err, appErrors.ErrStoreNotReady)
	assert.Empty(t, f.files.files)

	err = f.service.Delete(context.Background(), "6f1c1a52-2b7a-4c34-9d58-4c1d2f1d8a10")
	require.ErrorIs(t, err, appErrors.ErrStoreNotReady)
}

func TestFileServiceUploadUnknownOrForeignChapter(t *testing.T) {
	f := newNotesFixture(t)
	ctx := context.Background()

	req := f.request()
	req.ChapterID = "chapter-missing"
	_, err := f.service.Upload(ctx, req, pdfUpload("content"))
	requireStatus(t, err, http.StatusNotFound)

	req = f.request()
	req.StudentID = "student-other"
	_, err = f.service.Upload(ctx, req, pdfUpload("content"))
	requireStatus(t, err, http.StatusNotFound)

	assert.Empty(t, f.blobs.blobs)
	assert.Empty(t, f.files.files)
}

func TestFileServiceUploadBlobFailureWritesNothing(t *testing.T) {
	f := newNotesFixture(t)
	f.blobs.putErr = errStub

	_, err := f.service.Upload(context.Background(), f.request(), pdfUpload("content"))
	requireStatus(t, err, http.StatusInternalServerError)
	assert.Empty(t, f.files.files)

	chapter, _ := f.chapters.FindByID(context.Background(), f.chapterID)
	assert.Empty(t, chapter.FileIDs)
}

func TestFileServiceUploadRecordFailureDeletesBlob(t *testing.T) {
	f := newNotesFixture(t)
	f.files.createErr = errStub

	_, err := f.service.Upload(context.Background(), f.request(), pdfUpload("content"))
	requireStatus(t, err, http.StatusInternalServerError)
	assert.Empty(t, f.blobs.blobs)
	require.Len(t, f.blobs.deletes, 1)
	assert.Empty(t, f.orphans.reports)
}

func TestFileServiceUploadLinkFailureReportsOrphan(t *testing.T) {
	f := newNotesFixture(t)
	f.chapters.appendErr = errStub

	_, err := f.service.Upload(context.Background(), f.request(), pdfUpload("content"))
	requireStatus(t, err, http.StatusInternalServerError)
	require.Len(t, f.orphans.reports, 1)
	_, stored := f.files.files[f.orphans.reports[0]]
	assert.True(t, stored)
}

func TestFileServiceDeleteRemovesFileAndReferences(t *testing.T) {
	f := newNotesFixture(t)
	ctx := context.Background()

	desc, err := f.service.Upload(ctx, f.request(), pdfUpload("content"))
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, desc.ID))
	assert.Empty(t, f.blobs.blobs)
	assert.Empty(t, f.files.files)
	chapter, _ := f.chapters.FindByID(ctx, f.chapterID)
	assert.Empty(t, chapter.FileIDs)

	list, _, err := f.service.List(ctx, dto.FileQuery{ChapterID: f.chapterID})
	require.NoError(t, err)
	assert.Empty(t, list.Files)

	err = f.service.Delete(ctx, desc.ID)
	appErr := requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "File not found", appErr.Message)
}

func TestFileServiceDeleteInvalidID(t *testing.T) {
	f := newNotesFixture(t)
	err := f.service.Delete(context.Background(), "not-a-uuid")
	appErr := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "invalid file id", appErr.Message)
}

func TestFileServiceDeleteBlobFailureKeepsRecord(t *testing.T) {
	f := newNotesFixture(t)
	ctx := context.Background()
	desc, err := f.service.Upload(ctx, f.request(), pdfUpload("content"))
	require.NoError(t, err)

	f.blobs.deleteErr = errStub
	err = f.service.Delete(ctx, desc.ID)
	requireStatus(t, err, http.StatusInternalServerError)

	_, stored := f.files.files[desc.ID]
	assert.True(t, stored)
	chapter, _ := f.chapters.FindByID(ctx, f.chapterID)
	assert.Equal(t, []string{desc.ID}, []string(chapter.FileIDs))
}

func TestFileServiceDeleteToleratesMissingBlob(t *testing.T) {
	f := newNotesFixture(t)
	ctx := context.Background()
	desc, err := f.service.Upload(ctx, f.request(), pdfUpload("content"))
	require.NoError(t, err)
	delete(f.blobs.blobs, desc.ID)

	require.NoError(t, f.service.Delete(ctx, desc.ID))
	assert.Empty(t, f.files.files)
}

func TestFileServiceGetAndDownload(t *testing.T) {
	f := newNotesFixture(t)
	ctx := context.Background()
	uploaded, err := f.service.Upload(ctx, f.request(), pdfUpload("content"))
	require.NoError(t, err)

	desc, err := f.service.Get(ctx, uploaded.ID)
	require.NoError(t, err)
	require.NotNil(t, desc.ExpiresAt)
	require.True(t, strings.HasPrefix(desc.DownloadURL, "/api/files/"+uploaded.ID+"/download?token="))

	parsed, err := url.Parse(desc.DownloadURL)
	require.NoError(t, err)
	token := parsed.Query().Get("token")

	download, err := f.service.Download(ctx, uploaded.ID, token)
	require.NoError(t, err)
	defer download.Content.Close()
	body, err := io.ReadAll(download.Content)
	require.NoError(t, err)
	assert.Equal(t, "content", string(body))
	assert.Equal(t, "notes.pdf", download.Filename)

	_, err = f.service.Download(ctx, uploaded.ID, "bogus")
	requireStatus(t, err, http.StatusForbidden)
}

func TestFileServiceUploadPersonalNote(t *testing.T) {
	f := newNotesFixture(t)
	ctx := context.Background()
	req := f.request()

	_, err := f.service.UploadPersonal(ctx, req, pdfUpload("mine"))
	appErr := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "Student not enrolled in this course", appErr.Message)

	enrollment := &models.Enrollment{StudentID: f.studentID, CourseID: f.courseID}
	require.NoError(t, f.students.CreateEnrollment(ctx, enrollment))
	_, err = f.service.UploadPersonal(ctx, req, pdfUpload("mine"))
	appErr = requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "Chapter not added yet", appErr.Message)
	assert.Empty(t, f.blobs.blobs)

	require.NoError(t, f.students.AddSelectedChapter(ctx, &models.SelectedChapter{EnrollmentID: enrollment.ID, ChapterID: f.chapterID}))
	resp, err := f.service.UploadPersonal(ctx, req, pdfUpload("mine"))
	require.NoError(t, err)
	assert.Equal(t, "File uploaded successfully", resp.Message)
	require.Len(t, resp.Student.Enrollments, 1)
	require.Len(t, resp.Student.Enrollments[0].SelectedChapters, 1)
	personal := resp.Student.Enrollments[0].SelectedChapters[0].PersonalFiles
	require.Len(t, personal, 1)
	assert.Equal(t, resp.File.ID, personal[0].FileID)

	chapter, _ := f.chapters.FindByID(ctx, f.chapterID)
	assert.Empty(t, chapter.FileIDs)

	require.NoError(t, f.service.Delete(ctx, resp.File.ID))
	referenced, err := f.students.PersonalFileReferenced(ctx, resp.File.ID)
	require.NoError(t, err)
	assert.False(t, referenced)
}

func TestFileServiceListServedFromCache(t *testing.T) {
	f := newNotesFixture(t)
	f.service.cache, _ = newRedisCache(t)
	ctx := context.Background()

	query := dto.FileQuery{ChapterID: f.chapterID}
	_, hit, err := f.service.List(ctx, query)
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = f.service.List(ctx, query)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, f.files.listCalls)

	_, err = f.service.Upload(ctx, f.request(), pdfUpload("content"))
	require.NoError(t, err)
	list, hit, err := f.service.List(ctx, query)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, list.Files, 1)
}

func TestFileServiceListNotCachedAcrossInvalidation(t *testing.T) {
	f := newNotesFixture(t)
	f.service.cache, _ = newRedisCache(t)
	ctx := context.Background()
	query := dto.FileQuery{ChapterID: f.chapterID}

	f.files.afterList = func() {
		f.files.afterList = nil
		f.service.invalidate(ctx)
	}
	_, hit, err := f.service.List(ctx, query)
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = f.service.List(ctx, query)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, f.files.listCalls)

	_, hit, err = f.service.List(ctx, query)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, f.files.listCalls)
}

func TestResolveContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", resolveContentType("notes.PDF", ""))
	assert.Equal(t, "application/pdf", resolveContentType("notes.pdf", "application/octet-stream"))
	assert.Equal(t, "text/markdown", resolveContentType("notes.bin", "text/markdown"))
	assert.Equal(t, "application/octet-stream", resolveContentType("notes", ""))
	assert.Equal(t, "notes.pdf", cleanFilename("../../etc/notes.pdf"))
}
