package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/studynotes-api/internal/dto"
	"github.com/noah-isme/studynotes-api/internal/models"
	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
	"github.com/noah-isme/studynotes-api/pkg/storage"
)

// FileDeletedMessage confirms a successful delete.
const FileDeletedMessage = "File deleted successfully"

const (
	fileCachePrefix = "files:"
	defaultMIMEType = "application/octet-stream"
	noFileMessage   = "No file uploaded"
)

type fileRecordRepository interface {
	Create(ctx context.Context, file *models.File) error
	FindByID(ctx context.Context, id string) (*models.File, error)
	List(ctx context.Context, filter models.FileFilter) ([]models.File, error)
	Delete(ctx context.Context, id string) error
}

type fileChapterRepository interface {
	FindByID(ctx context.Context, id string) (*models.Chapter, error)
	AppendFile(ctx context.Context, chapterID, fileID string) error
	RetractFile(ctx context.Context, fileID string) (int64, error)
}

type personalNoteRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindEnrollment(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	FindSelectedChapter(ctx context.Context, enrollmentID, chapterID string) (*models.SelectedChapter, error)
	AddPersonalFile(ctx context.Context, file *models.PersonalFile) error
	RemovePersonalFileLinks(ctx context.Context, fileID string) (int64, error)
}

type blobProvider interface {
	Store() (storage.BlobStore, error)
}

type downloadSigner interface {
	Generate(fileID string) (string, time.Time, error)
	Verify(fileID, token string) error
}

type orphanReporter interface {
	ReportOrphan(fileID, reason string)
}

// FileServiceConfig tunes upload limits and link rendering.
type FileServiceConfig struct {
	MaxFileSize int64
	APIPrefix   string
	CacheTTL    time.Duration
}

// FileService orchestrates uploads, the file directory and deletions across
// the blob store and the entity store. The two stores are not transactional;
// each failure path either compensates immediately or hands the file to the
// reconciler.
type FileService struct {
	files     fileRecordRepository
	chapters  fileChapterRepository
	students  personalNoteRepository
	profiles  profileLoader
	blobs     blobProvider
	signer    downloadSigner
	orphans   orphanReporter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       FileServiceConfig
}

// NewFileService constructs a FileService.
func NewFileService(files fileRecordRepository, chapters fileChapterRepository, students personalNoteRepository, profiles profileLoader, blobs blobProvider, signer downloadSigner, orphans orphanReporter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg FileServiceConfig) *FileService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 25 * 1024 * 1024
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	return &FileService{
		files:     files,
		chapters:  chapters,
		students:  students,
		profiles:  profiles,
		blobs:     blobs,
		signer:    signer,
		orphans:   orphans,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Upload stores a chapter file. The chapter is resolved before any blob is
// written, and the chapter reference is appended only after both the blob and
// its record are durable.
func (s *FileService) Upload(ctx context.Context, req dto.UploadFileRequest, upload dto.FileUpload) (result *dto.FileDescriptor, err error) {
	defer func() { s.metrics.RecordFileOperation("upload", err, upload.Size) }()

	if err := s.checkPayload(upload); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	store, err := s.blobs.Store()
	if err != nil {
		return nil, err
	}

	chapter, err := s.chapters.FindByID(ctx, req.ChapterID)
	if err != nil {
		return nil, notFoundOr(err, "Chapter not found", "failed to load chapter")
	}
	if chapter.StudentID != req.StudentID || chapter.CourseID != req.CourseID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Chapter not found for this student and course")
	}

	file, err := s.persist(ctx, store, req.StudentID, req.CourseID, req.ChapterID, upload)
	if err != nil {
		return nil, err
	}

	if err := s.chapters.AppendFile(ctx, chapter.ID, file.ID); err != nil {
		s.logger.Error("failed to link file to chapter",
			zap.String("file_id", file.ID), zap.String("chapter_id", chapter.ID), zap.Error(err))
		s.reportOrphan(file.ID, "chapter link failed")
		return nil, appErrors.Internal(err, "failed to link file to chapter")
	}

	s.invalidate(ctx)
	s.logger.Info("file uploaded",
		zap.String("file_id", file.ID), zap.String("chapter_id", chapter.ID), zap.Int64("size", file.Size))
	return dto.NewFileDescriptor(file), nil
}

// UploadPersonal stores a personal note on a selected chapter. Personal notes
// never join the chapter's file list.
func (s *FileService) UploadPersonal(ctx context.Context, req dto.UploadFileRequest, upload dto.FileUpload) (result *dto.PersonalNoteResponse, err error) {
	defer func() { s.metrics.RecordFileOperation("upload_personal", err, upload.Size) }()

	if err := s.checkPayload(upload); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	store, err := s.blobs.Store()
	if err != nil {
		return nil, err
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return nil, notFoundOr(err, "Student not found", "failed to load student")
	}
	enrollment, err := s.students.FindEnrollment(ctx, req.StudentID, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Student not enrolled in this course")
		}
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	selected, err := s.students.FindSelectedChapter(ctx, enrollment.ID, req.ChapterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Chapter not added yet")
		}
		return nil, appErrors.Internal(err, "failed to load selected chapter")
	}

	file, err := s.persist(ctx, store, req.StudentID, req.CourseID, req.ChapterID, upload)
	if err != nil {
		return nil, err
	}
	link := &models.PersonalFile{SelectedChapterID: selected.ID, FileID: file.ID, Filename: file.Filename}
	if err := s.students.AddPersonalFile(ctx, link); err != nil {
		s.logger.Error("failed to link personal note",
			zap.String("file_id", file.ID), zap.String("student_id", req.StudentID), zap.Error(err))
		s.reportOrphan(file.ID, "personal link failed")
		return nil, appErrors.Internal(err, "failed to link personal note")
	}
	s.invalidate(ctx)

	profile, err := s.profiles.Get(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	return &dto.PersonalNoteResponse{Message: "File uploaded successfully", File: dto.NewFileDescriptor(file), Student: profile}, nil
}

// persist writes the blob, then its record. A failed record write deletes the
// blob again.
func (s *FileService) persist(ctx context.Context, store storage.BlobStore, studentID, courseID, chapterID string, upload dto.FileUpload) (*models.File, error) {
	file := &models.File{
		ID:          uuid.NewString(),
		Filename:    cleanFilename(upload.Filename),
		ContentType: resolveContentType(upload.Filename, upload.ContentType),
		Size:        upload.Size,
		StudentID:   studentID,
		CourseID:    courseID,
		ChapterID:   chapterID,
		UploadDate:  time.Now().UTC(),
	}
	meta := storage.BlobMeta{
		Filename:    file.Filename,
		ContentType: file.ContentType,
		StudentID:   studentID,
		CourseID:    courseID,
		ChapterID:   chapterID,
	}
	if err := store.Put(ctx, file.ID, upload.Content, upload.Size, meta); err != nil {
		s.logger.Error("blob write failed", zap.String("file_id", file.ID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to store file")
	}
	if err := s.files.Create(ctx, file); err != nil {
		s.logger.Error("file record write failed", zap.String("file_id", file.ID), zap.Error(err))
		if delErr := store.Delete(context.WithoutCancel(ctx), file.ID); delErr != nil && !errors.Is(delErr, storage.ErrBlobNotFound) {
			s.logger.Error("compensating blob delete failed", zap.String("file_id", file.ID), zap.Error(delErr))
			s.reportOrphan(file.ID, "compensation failed")
		}
		return nil, appErrors.Internal(err, "failed to record file")
	}
	return file, nil
}

// List answers the file directory query. An empty filter lists every file and
// no match yields an empty list. The bool reports a cache hit.
func (s *FileService) List(ctx context.Context, query dto.FileQuery) (*dto.FileList, bool, error) {
	filter := models.FileFilter{
		StudentID: strings.TrimSpace(query.StudentID),
		CourseID:  strings.TrimSpace(query.CourseID),
		ChapterID: strings.TrimSpace(query.ChapterID),
	}
	key := listCacheKey(filter)

	gen := s.cache.Generation()
	var cached dto.FileList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		if cached.Files == nil {
			cached.Files = []dto.FileDescriptor{}
		}
		return &cached, true, nil
	}

	files, err := s.files.List(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list files")
	}
	result := &dto.FileList{Files: make([]dto.FileDescriptor, 0, len(files))}
	for i := range files {
		result.Files = append(result.Files, *dto.NewFileDescriptor(&files[i]))
	}
	s.cache.SetIfCurrent(ctx, gen, key, result, s.cfg.CacheTTL)
	return result, false, nil
}

// Get returns one descriptor with a signed download link.
func (s *FileService) Get(ctx context.Context, id string) (*dto.FileDescriptor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid file id")
	}
	file, err := s.files.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "File not found", "failed to load file")
	}
	desc := dto.NewFileDescriptor(file)
	if s.signer != nil {
		token, expiresAt, err := s.signer.Generate(file.ID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to sign download link")
		}
		desc.DownloadURL = fmt.Sprintf("%s/files/%s/download?token=%s", s.cfg.APIPrefix, file.ID, url.QueryEscape(token))
		desc.ExpiresAt = &expiresAt
	}
	return desc, nil
}

// Download opens a file's content after checking its signed token.
func (s *FileService) Download(ctx context.Context, id, token string) (*dto.FileDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "downloads are disabled")
	}
	if err := s.signer.Verify(id, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	file, err := s.files.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "File not found", "failed to load file")
	}
	store, err := s.blobs.Store()
	if err != nil {
		return nil, err
	}
	content, err := store.Open(ctx, file.ID)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			s.logger.Warn("file record without blob", zap.String("file_id", file.ID))
			return nil, appErrors.Clone(appErrors.ErrNotFound, "File content not found")
		}
		return nil, appErrors.Internal(err, "failed to open file")
	}
	return &dto.FileDownload{Content: content, Filename: file.Filename, ContentType: file.ContentType, Size: file.Size}, nil
}

// Delete removes the blob first, then the record, then every reference to it.
// If the blob cannot be deleted nothing else is touched.
func (s *FileService) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.RecordFileOperation("delete", err, 0) }()

	if _, err := uuid.Parse(id); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid file id")
	}
	store, err := s.blobs.Store()
	if err != nil {
		return err
	}
	file, err := s.files.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "File not found", "failed to load file")
	}

	if err := store.Delete(ctx, file.ID); err != nil {
		if !errors.Is(err, storage.ErrBlobNotFound) {
			s.logger.Error("blob delete failed", zap.String("file_id", file.ID), zap.Error(err))
			return appErrors.Internal(err, "failed to delete file content")
		}
		s.logger.Warn("blob already absent", zap.String("file_id", file.ID))
	}

	if err := s.files.Delete(ctx, file.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "File not found")
		}
		s.logger.Error("file record delete failed", zap.String("file_id", file.ID), zap.Error(err))
		return appErrors.Internal(err, "failed to delete file record")
	}

	if _, err := s.chapters.RetractFile(ctx, file.ID); err != nil {
		s.logger.Error("failed to retract chapter reference", zap.String("file_id", file.ID), zap.Error(err))
		return appErrors.Internal(err, "failed to retract file references")
	}
	if _, err := s.students.RemovePersonalFileLinks(ctx, file.ID); err != nil {
		s.logger.Error("failed to retract personal note reference", zap.String("file_id", file.ID), zap.Error(err))
		return appErrors.Internal(err, "failed to retract file references")
	}

	s.invalidate(ctx)
	s.logger.Info("file deleted", zap.String("file_id", file.ID), zap.String("chapter_id", file.ChapterID))
	return nil
}

func (s *FileService) checkPayload(upload dto.FileUpload) error {
	if upload.Content == nil || upload.Size <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, noFileMessage)
	}
	if upload.Size > s.cfg.MaxFileSize {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	return nil
}

func (s *FileService) reportOrphan(fileID, reason string) {
	if s.orphans != nil {
		s.orphans.ReportOrphan(fileID, reason)
	}
}

func (s *FileService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(context.WithoutCancel(ctx), fileCachePrefix+"*")
}

func listCacheKey(filter models.FileFilter) string {
	return fmt.Sprintf("%slist:s=%s:c=%s:ch=%s", fileCachePrefix, filter.StudentID, filter.CourseID, filter.ChapterID)
}

func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

func resolveContentType(filename, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != defaultMIMEType {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	if declared != "" {
		return declared
	}
	return defaultMIMEType
}
