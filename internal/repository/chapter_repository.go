package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studynotes-api/internal/models"
)

const chapterColumns = `id, title, student_id, course_id, file_ids, conversation_ids, created_at`

// ChapterRepository manages chapters and the file and conversation
// references they own. Array updates are single statements so concurrent
// appends never overwrite each other.
type ChapterRepository struct {
	db *sqlx.DB
}

// NewChapterRepository constructs a ChapterRepository.
func NewChapterRepository(db *sqlx.DB) *ChapterRepository {
	return &ChapterRepository{db: db}
}

// Create inserts a chapter with empty reference lists.
func (r *ChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	if chapter.ID == "" {
		chapter.ID = uuid.NewString()
	}
	if chapter.CreatedAt.IsZero() {
		chapter.CreatedAt = time.Now().UTC()
	}
	if chapter.FileIDs == nil {
		chapter.FileIDs = []string{}
	}
	if chapter.ConversationIDs == nil {
		chapter.ConversationIDs = []string{}
	}
	const query = `INSERT INTO chapters (id, title, student_id, course_id, file_ids, conversation_ids, created_at)
        VALUES (:id, :title, :student_id, :course_id, :file_ids, :conversation_ids, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, chapter); err != nil {
		return fmt.Errorf("create chapter: %w", err)
	}
	return nil
}

// FindByID fetches a chapter by ID.
func (r *ChapterRepository) FindByID(ctx context.Context, id string) (*models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE id = $1`
	var chapter models.Chapter
	if err := r.db.GetContext(ctx, &chapter, query, id); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// ListByStudentAndCourse returns a student's chapters for a course.
func (r *ChapterRepository) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE student_id = $1 AND course_id = $2 ORDER BY created_at ASC`
	var chapters []models.Chapter
	if err := r.db.SelectContext(ctx, &chapters, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return chapters, nil
}

// ListByCourse returns every chapter of a course.
func (r *ChapterRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE course_id = $1 ORDER BY created_at ASC`
	var chapters []models.Chapter
	if err := r.db.SelectContext(ctx, &chapters, query, courseID); err != nil {
		return nil, fmt.Errorf("list course chapters: %w", err)
	}
	return chapters, nil
}

// AppendFile appends fileID to the chapter's file references. A missing
// chapter yields sql.ErrNoRows.
func (r *ChapterRepository) AppendFile(ctx context.Context, chapterID, fileID string) error {
	const query = `UPDATE chapters SET file_ids = array_append(file_ids, $2) WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, chapterID, fileID)
	if err != nil {
		return fmt.Errorf("append chapter file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append chapter file rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RetractFile removes fileID from every chapter referencing it.
func (r *ChapterRepository) RetractFile(ctx context.Context, fileID string) (int64, error) {
	const query = `UPDATE chapters SET file_ids = array_remove(file_ids, $1) WHERE $1 = ANY(file_ids)`
	res, err := r.db.ExecContext(ctx, query, fileID)
	if err != nil {
		return 0, fmt.Errorf("retract chapter file: %w", err)
	}
	return res.RowsAffected()
}

// AddConversation records conversationID on the chapter when absent and
// reports whether a reference was added.
func (r *ChapterRepository) AddConversation(ctx context.Context, chapterID, conversationID string) (bool, error) {
	const query = `UPDATE chapters SET conversation_ids = array_append(conversation_ids, $2)
        WHERE id = $1 AND NOT ($2 = ANY(conversation_ids))`
	res, err := r.db.ExecContext(ctx, query, chapterID, conversationID)
	if err != nil {
		return false, fmt.Errorf("add chapter conversation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add chapter conversation rows: %w", err)
	}
	return affected > 0, nil
}

// ReferencesFile reports whether any chapter lists fileID.
func (r *ChapterRepository) ReferencesFile(ctx context.Context, fileID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM chapters WHERE $1 = ANY(file_ids))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, fileID); err != nil {
		return false, fmt.Errorf("check chapter file reference: %w", err)
	}
	return exists, nil
}
