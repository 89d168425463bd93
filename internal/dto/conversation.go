package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/studynotes-api/internal/models"
)

// SendMessageRequest is the body of POST /conversations/:chapterId. Sender is
// accepted for compatibility; inbound turns are always tagged "student". Text
// is read when Message is blank.
type SendMessageRequest struct {
	StudentID string `json:"studentId"`
	Message   string `json:"message"`
	Text      string `json:"text,omitempty"`
	Sender    string `json:"sender,omitempty"`
}

// Content returns the trimmed message, falling back to Text.
func (r SendMessageRequest) Content() string {
	if message := strings.TrimSpace(r.Message); message != "" {
		return message
	}
	return strings.TrimSpace(r.Text)
}

// ConversationQuery captures GET /conversations and export query parameters.
type ConversationQuery struct {
	ChapterID string `form:"chapterId"`
	StudentID string `form:"studentId"`
	Format    string `form:"format"`
}

// TurnView is one rendered message.
type TurnView struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationResponse renders a conversation. ID fields are empty for the
// placeholder returned before the first message.
type ConversationResponse struct {
	ID        string     `json:"id,omitempty"`
	LegacyID  string     `json:"_id,omitempty"`
	StudentID string     `json:"student,omitempty"`
	ChapterID string     `json:"chapter,omitempty"`
	Messages  []TurnView `json:"messages"`
}

// ChatReply is returned by POST /conversations/:chapterId.
type ChatReply struct {
	Answer       string                `json:"answer"`
	Conversation *ConversationResponse `json:"conversation"`
}

// TranscriptDocument is a rendered export ready for download.
type TranscriptDocument struct {
	Filename    string
	ContentType string
	Content     []byte
}

// NewConversationResponse renders conversation with its turns.
func NewConversationResponse(conversation *models.Conversation, turns []models.Turn) *ConversationResponse {
	resp := &ConversationResponse{Messages: make([]TurnView, 0, len(turns))}
	if conversation != nil {
		resp.ID = conversation.ID
		resp.LegacyID = conversation.ID
		resp.StudentID = conversation.StudentID
		resp.ChapterID = conversation.ChapterID
	}
	for _, turn := range turns {
		resp.Messages = append(resp.Messages, TurnView{Sender: turn.Sender, Text: turn.Text, Timestamp: turn.CreatedAt})
	}
	return resp
}
