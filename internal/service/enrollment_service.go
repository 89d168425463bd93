package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studynotes-api/internal/dto"
	"github.com/noah-isme/studynotes-api/internal/models"
	"github.com/noah-isme/studynotes-api/internal/repository"
	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	FindEnrollment(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	AddSelectedChapter(ctx context.Context, selected *models.SelectedChapter) error
	RemoveSelectedChapter(ctx context.Context, enrollmentID, chapterID string) (bool, error)
}

type courseLookup interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type chapterLookup interface {
	FindByID(ctx context.Context, id string) (*models.Chapter, error)
}

type profileLoader interface {
	Get(ctx context.Context, id string) (*dto.StudentResponse, error)
}

// EnrollmentService manages course enrollments and chapter selections.
type EnrollmentService struct {
	students  enrollmentRepository
	courses   courseLookup
	chapters  chapterLookup
	profiles  profileLoader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(students enrollmentRepository, courses courseLookup, chapters chapterLookup, profiles profileLoader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{students: students, courses: courses, chapters: chapters, profiles: profiles, validator: validate, logger: logger}
}

// Enroll adds a course to the student's enrollments.
func (s *EnrollmentService) Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.StudentMessageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return nil, notFoundOr(err, "Student or Course not found", "failed to load student")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		return nil, notFoundOr(err, "Student or Course not found", "failed to load course")
	}

	err := s.students.CreateEnrollment(ctx, &models.Enrollment{StudentID: req.StudentID, CourseID: req.CourseID})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Already enrolled in this course")
		}
		return nil, appErrors.Internal(err, "failed to enroll student")
	}
	return s.respond(ctx, req.StudentID, "Enrolled successfully")
}

// AddChapter selects a chapter of an enrolled course.
func (s *EnrollmentService) AddChapter(ctx context.Context, req dto.ChapterSelectionRequest) (*dto.StudentMessageResponse, error) {
	enrollment, err := s.enrollment(ctx, req)
	if err != nil {
		return nil, err
	}
	chapter, err := s.chapters.FindByID(ctx, req.ChapterID)
	if err != nil {
		return nil, notFoundOr(err, "Chapter not found in this course", "failed to load chapter")
	}
	if chapter.CourseID != req.CourseID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Chapter not found in this course")
	}

	err = s.students.AddSelectedChapter(ctx, &models.SelectedChapter{EnrollmentID: enrollment.ID, ChapterID: chapter.ID})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Chapter already added")
		}
		return nil, appErrors.Internal(err, "failed to add chapter")
	}
	return s.respond(ctx, req.StudentID, "Chapter added successfully")
}

// RemoveChapter drops a chapter selection. Removing an unselected chapter succeeds.
func (s *EnrollmentService) RemoveChapter(ctx context.Context, req dto.ChapterSelectionRequest) (*dto.StudentMessageResponse, error) {
	enrollment, err := s.enrollment(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.students.RemoveSelectedChapter(ctx, enrollment.ID, req.ChapterID); err != nil {
		return nil, appErrors.Internal(err, "failed to remove chapter")
	}
	return s.respond(ctx, req.StudentID, "Chapter removed successfully")
}

func (s *EnrollmentService) enrollment(ctx context.Context, req dto.ChapterSelectionRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
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
	return enrollment, nil
}

func (s *EnrollmentService) respond(ctx context.Context, studentID, message string) (*dto.StudentMessageResponse, error) {
	profile, err := s.profiles.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &dto.StudentMessageResponse{Message: message, Student: profile}, nil
}

// notFoundOr maps sql.ErrNoRows to a 404 with notFound and anything else to a 500.
func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}
