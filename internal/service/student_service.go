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

type studentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListSelectedChapters(ctx context.Context, studentID string) ([]models.SelectedChapterDetail, error)
	ListPersonalFiles(ctx context.Context, studentID string) ([]models.PersonalFile, error)
}

// StudentService handles registration and profile rendering.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = newValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// Register creates a student. A taken email fails without creating a record.
func (s *StudentService) Register(ctx context.Context, req dto.RegisterStudentRequest) (*dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "Email already exists")
	}

	student := &models.Student{Name: req.Name, Email: req.Email}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "Email already exists")
		}
		return nil, appErrors.Internal(err, "failed to register student")
	}
	s.logger.Info("student registered", zap.String("student_id", student.ID))
	return dto.NewStudentResponse(student), nil
}

// Get renders a student's profile with enrollments, selected chapters and
// personal notes expanded.
func (s *StudentService) Get(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}

	enrollments, err := s.repo.ListEnrollments(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollments")
	}
	selected, err := s.repo.ListSelectedChapters(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load selected chapters")
	}
	personal, err := s.repo.ListPersonalFiles(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load personal files")
	}

	filesBySelection := make(map[string][]dto.PersonalFileView)
	for _, pf := range personal {
		filesBySelection[pf.SelectedChapterID] = append(filesBySelection[pf.SelectedChapterID], dto.PersonalFileView{FileID: pf.FileID, Filename: pf.Filename})
	}
	chaptersByEnrollment := make(map[string][]dto.SelectedChapterView)
	for _, sc := range selected {
		files := filesBySelection[sc.ID]
		if files == nil {
			files = []dto.PersonalFileView{}
		}
		chaptersByEnrollment[sc.EnrollmentID] = append(chaptersByEnrollment[sc.EnrollmentID], dto.SelectedChapterView{
			ChapterID:     sc.ChapterID,
			Title:         sc.ChapterTitle,
			PersonalFiles: files,
		})
	}

	resp := dto.NewStudentResponse(student)
	for _, e := range enrollments {
		chapters := chaptersByEnrollment[e.ID]
		if chapters == nil {
			chapters = []dto.SelectedChapterView{}
		}
		resp.Enrollments = append(resp.Enrollments, dto.EnrollmentView{
			CourseID:         e.CourseID,
			CourseTitle:      e.CourseTitle,
			CourseCode:       e.CourseCode,
			SelectedChapters: chapters,
		})
	}
	return resp, nil
}
