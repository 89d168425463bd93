package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studynotes-api/internal/dto"
	"github.com/noah-isme/studynotes-api/internal/models"
	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
)

type chapterRepository interface {
	Create(ctx context.Context, chapter *models.Chapter) error
	ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Chapter, error)
}

type ownedCourseLookup interface {
	FindOwned(ctx context.Context, id, studentID string) (*models.Course, error)
}

// ChapterService manages chapters inside a student's courses.
type ChapterService struct {
	repo      chapterRepository
	courses   ownedCourseLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChapterService constructs a ChapterService.
func NewChapterService(repo chapterRepository, courses ownedCourseLookup, validate *validator.Validate, logger *zap.Logger) *ChapterService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChapterService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// Add creates a chapter. The course must belong to the requesting student.
func (s *ChapterService) Add(ctx context.Context, req dto.AddChapterRequest) (*dto.ChapterCreatedResponse, error) {
	if strings.TrimSpace(req.StudentID) == "" || strings.TrimSpace(req.CourseID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId and courseId are required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if _, err := s.courses.FindOwned(ctx, req.CourseID, req.StudentID); err != nil {
		return nil, notFoundOr(err, "Course not found for this student", "failed to load course")
	}

	chapter := &models.Chapter{Title: strings.TrimSpace(req.Title), StudentID: req.StudentID, CourseID: req.CourseID}
	if err := s.repo.Create(ctx, chapter); err != nil {
		return nil, appErrors.Internal(err, "failed to create chapter")
	}
	return &dto.ChapterCreatedResponse{Message: "Chapter added successfully", Chapter: dto.NewChapterResponse(chapter)}, nil
}

// ListByStudentAndCourse returns a student's chapters for a course. None is a 404.
func (s *ChapterService) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]dto.ChapterResponse, error) {
	if studentID == "" || courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId and courseId are required")
	}
	chapters, err := s.repo.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list chapters")
	}
	if len(chapters) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "No chapters found for this student and course")
	}
	result := make([]dto.ChapterResponse, 0, len(chapters))
	for i := range chapters {
		result = append(result, *dto.NewChapterResponse(&chapters[i]))
	}
	return result, nil
}
