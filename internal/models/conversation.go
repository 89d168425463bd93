package models

import "time"

// Turn sender tags.
const (
	SenderStudent   = "student"
	SenderAssistant = "llm"
)

// Conversation is unique per (student, chapter).
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"studentId"`
	ChapterID string    `db:"chapter_id" json:"chapterId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Turn is one appended message. Seq orders turns within a conversation.
type Turn struct {
	Seq            int64     `db:"id" json:"-"`
	ConversationID string    `db:"conversation_id" json:"-"`
	Sender         string    `db:"sender" json:"sender"`
	Text           string    `db:"text" json:"text"`
	CreatedAt      time.Time `db:"created_at" json:"timestamp"`
}
