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

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Course, error)
}

type courseChapterLister interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Chapter, error)
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// CourseService manages a student's courses.
type CourseService struct {
	repo      courseRepository
	chapters  courseChapterLister
	students  studentLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, chapters courseChapterLister, students studentLookup, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, chapters: chapters, students: students, validator: validate, logger: logger}
}

// Create registers a course owned by the requesting student.
func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*dto.CourseCreatedResponse, error) {
	if strings.TrimSpace(req.StudentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return nil, notFoundOr(err, "Student not found", "failed to load student")
	}

	course := &models.Course{Title: strings.TrimSpace(req.Title), StudentID: req.StudentID}
	if code := strings.TrimSpace(req.CourseCode); code != "" {
		course.CourseCode = &code
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Internal(err, "failed to create course")
	}
	return &dto.CourseCreatedResponse{Message: "Course created successfully", Course: dto.NewCourseResponse(course, nil)}, nil
}

// Get returns a course with its chapters.
func (s *CourseService) Get(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Course not found", "failed to load course")
	}
	chapters, err := s.chapters.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load chapters")
	}
	return dto.NewCourseResponse(course, chapters), nil
}

// ListByStudent returns a student's courses with chapters. No courses is a 404.
func (s *CourseService) ListByStudent(ctx context.Context, studentID string) ([]dto.CourseResponse, error) {
	courses, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "No courses found for this student")
	}
	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		chapters, err := s.chapters.ListByCourse(ctx, courses[i].ID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load chapters")
		}
		result = append(result, *dto.NewCourseResponse(&courses[i], chapters))
	}
	return result, nil
}
