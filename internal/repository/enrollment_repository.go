package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/studynotes-api/internal/models"
)

// CreateEnrollment enrolls a student into a course. Re-enrolling yields ErrDuplicate.
func (r *StudentRepository) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, course_id, created_at)
        VALUES (:id, :student_id, :course_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		if err = translateWriteErr(err); errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindEnrollment fetches the enrollment of a student in a course.
func (r *StudentRepository) FindEnrollment(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, created_at FROM enrollments WHERE student_id = $1 AND course_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListEnrollments returns a student's enrollments with course details.
func (r *StudentRepository) ListEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.created_at, c.title AS course_title, c.course_code
        FROM enrollments e JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1 ORDER BY e.created_at ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// AddSelectedChapter selects a chapter within an enrollment. Selecting twice yields ErrDuplicate.
func (r *StudentRepository) AddSelectedChapter(ctx context.Context, selected *models.SelectedChapter) error {
	if selected.ID == "" {
		selected.ID = uuid.NewString()
	}
	if selected.CreatedAt.IsZero() {
		selected.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO selected_chapters (id, enrollment_id, chapter_id, created_at)
        VALUES (:id, :enrollment_id, :chapter_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, selected); err != nil {
		if err = translateWriteErr(err); errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("add selected chapter: %w", err)
	}
	return nil
}

// FindSelectedChapter fetches a chapter selection within an enrollment.
func (r *StudentRepository) FindSelectedChapter(ctx context.Context, enrollmentID, chapterID string) (*models.SelectedChapter, error) {
	const query = `SELECT id, enrollment_id, chapter_id, created_at FROM selected_chapters WHERE enrollment_id = $1 AND chapter_id = $2`
	var selected models.SelectedChapter
	if err := r.db.GetContext(ctx, &selected, query, enrollmentID, chapterID); err != nil {
		return nil, err
	}
	return &selected, nil
}

// RemoveSelectedChapter drops a chapter selection and its personal file links.
func (r *StudentRepository) RemoveSelectedChapter(ctx context.Context, enrollmentID, chapterID string) (bool, error) {
	const query = `DELETE FROM selected_chapters WHERE enrollment_id = $1 AND chapter_id = $2`
	res, err := r.db.ExecContext(ctx, query, enrollmentID, chapterID)
	if err != nil {
		return false, fmt.Errorf("remove selected chapter: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove selected chapter rows: %w", err)
	}
	return affected > 0, nil
}

// ListSelectedChapters returns every chapter selection of a student.
func (r *StudentRepository) ListSelectedChapters(ctx context.Context, studentID string) ([]models.SelectedChapterDetail, error) {
	const query = `SELECT sc.id, sc.enrollment_id, sc.chapter_id, sc.created_at, ch.title AS chapter_title
        FROM selected_chapters sc
        JOIN enrollments e ON e.id = sc.enrollment_id
        JOIN chapters ch ON ch.id = sc.chapter_id
        WHERE e.student_id = $1 ORDER BY sc.created_at ASC`
	var selected []models.SelectedChapterDetail
	if err := r.db.SelectContext(ctx, &selected, query, studentID); err != nil {
		return nil, fmt.Errorf("list selected chapters: %w", err)
	}
	return selected, nil
}

// AddPersonalFile links a stored file to a selected chapter.
func (r *StudentRepository) AddPersonalFile(ctx context.Context, file *models.PersonalFile) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO personal_files (id, selected_chapter_id, file_id, filename, created_at)
        VALUES (:id, :selected_chapter_id, :file_id, :filename, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		return fmt.Errorf("add personal file: %w", err)
	}
	return nil
}

// ListPersonalFiles returns a student's personal notes across selections.
func (r *StudentRepository) ListPersonalFiles(ctx context.Context, studentID string) ([]models.PersonalFile, error) {
	const query = `SELECT pf.id, pf.selected_chapter_id, pf.file_id, pf.filename, pf.created_at
        FROM personal_files pf
        JOIN selected_chapters sc ON sc.id = pf.selected_chapter_id
        JOIN enrollments e ON e.id = sc.enrollment_id
        WHERE e.student_id = $1 ORDER BY pf.created_at ASC`
	var files []models.PersonalFile
	if err := r.db.SelectContext(ctx, &files, query, studentID); err != nil {
		return nil, fmt.Errorf("list personal files: %w", err)
	}
	return files, nil
}

// RemovePersonalFileLinks retracts a file from every personal note list.
func (r *StudentRepository) RemovePersonalFileLinks(ctx context.Context, fileID string) (int64, error) {
	const query = `DELETE FROM personal_files WHERE file_id = $1`
	res, err := r.db.ExecContext(ctx, query, fileID)
	if err != nil {
		return 0, fmt.Errorf("remove personal file links: %w", err)
	}
	return res.RowsAffected()
}

// PersonalFileReferenced reports whether any personal note points at fileID.
func (r *StudentRepository) PersonalFileReferenced(ctx context.Context, fileID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM personal_files WHERE file_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, fileID); err != nil {
		return false, fmt.Errorf("check personal file links: %w", err)
	}
	return exists, nil
}
