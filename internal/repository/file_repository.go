package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/studynotes-api/internal/models"
)

const fileColumns = `id, filename, content_type, size, student_id, course_id, chapter_id, upload_date`

// FileRepository is the queryable index of stored blobs.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository constructs a FileRepository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts a file record. Callers usually preset ID to the blob key.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.UploadDate.IsZero() {
		file.UploadDate = time.Now().UTC()
	}
	const query = `INSERT INTO files (id, filename, content_type, size, student_id, course_id, chapter_id, upload_date)
        VALUES (:id, :filename, :content_type, :size, :student_id, :course_id, :chapter_id, :upload_date)`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// FindByID fetches a file record by ID.
func (r *FileRepository) FindByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	var file models.File
	if err := r.db.GetContext(ctx, &file, query, id); err != nil {
		return nil, err
	}
	return &file, nil
}

// List returns file records matching every non-empty filter field, oldest first.
func (r *FileRepository) List(ctx context.Context, filter models.FileFilter) ([]models.File, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("student_id", filter.StudentID)
	add("course_id", filter.CourseID)
	add("chapter_id", filter.ChapterID)

	query := `SELECT ` + fileColumns + ` FROM files`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY upload_date ASC, id ASC"

	files := make([]models.File, 0)
	if err := r.db.SelectContext(ctx, &files, query, args...); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// Delete removes a file record. A missing record yields sql.ErrNoRows.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete file rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ExistingIDs returns the subset of ids that have a file record.
func (r *FileRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	found := make([]string, 0, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	if err := r.db.SelectContext(ctx, &found, `SELECT id FROM files WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("match file ids: %w", err)
	}
	return found, nil
}

// ListUnreferencedBefore returns records uploaded before cutoff that no
// chapter or personal note references.
func (r *FileRepository) ListUnreferencedBefore(ctx context.Context, cutoff time.Time) ([]models.File, error) {
	const query = `SELECT f.id, f.filename, f.content_type, f.size, f.student_id, f.course_id, f.chapter_id, f.upload_date
        FROM files f
        WHERE f.upload_date < $1
          AND NOT EXISTS (SELECT 1 FROM chapters c WHERE f.id = ANY(c.file_ids))
          AND NOT EXISTS (SELECT 1 FROM personal_files p WHERE p.file_id = f.id)
        ORDER BY f.upload_date ASC`
	files := make([]models.File, 0)
	if err := r.db.SelectContext(ctx, &files, query, cutoff); err != nil {
		return nil, fmt.Errorf("list unreferenced files: %w", err)
	}
	return files, nil
}
