package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studynotes-api/internal/models"
)

// ConversationRepository persists conversations and their append-only turns.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository constructs a ConversationRepository.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// FindByStudentAndChapter looks a conversation up by its composite key.
func (r *ConversationRepository) FindByStudentAndChapter(ctx context.Context, studentID, chapterID string) (*models.Conversation, error) {
	const query = `SELECT id, student_id, chapter_id, created_at, updated_at FROM conversations WHERE student_id = $1 AND chapter_id = $2`
	var conversation models.Conversation
	if err := r.db.GetContext(ctx, &conversation, query, studentID, chapterID); err != nil {
		return nil, err
	}
	return &conversation, nil
}

// GetOrCreate returns the (student, chapter) conversation, creating it when
// absent. Concurrent callers converge on the same row.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, studentID, chapterID string) (*models.Conversation, error) {
	const insert = `INSERT INTO conversations (id, student_id, chapter_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $4) ON CONFLICT (student_id, chapter_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), studentID, chapterID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("create conversation: %w", translateWriteErr(err))
	}
	conversation, err := r.FindByStudentAndChapter(ctx, studentID, chapterID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return conversation, nil
}

// AppendTurn inserts one turn and bumps the conversation's update time.
func (r *ConversationRepository) AppendTurn(ctx context.Context, turn *models.Turn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	const query = `WITH inserted AS (
            INSERT INTO conversation_turns (conversation_id, sender, text, created_at)
            VALUES ($1, $2, $3, $4) RETURNING id
        ), touched AS (
            UPDATE conversations SET updated_at = $4 WHERE id = $1
        )
        SELECT id FROM inserted`
	if err := r.db.GetContext(ctx, &turn.Seq, query, turn.ConversationID, turn.Sender, turn.Text, turn.CreatedAt); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// ListTurns returns a conversation's turns in append order.
func (r *ConversationRepository) ListTurns(ctx context.Context, conversationID string) ([]models.Turn, error) {
	const query = `SELECT id, conversation_id, sender, text, created_at FROM conversation_turns WHERE conversation_id = $1 ORDER BY id ASC`
	turns := make([]models.Turn, 0)
	if err := r.db.SelectContext(ctx, &turns, query, conversationID); err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	return turns, nil
}
