package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studynotes-api/internal/dto"
	"github.com/noah-isme/studynotes-api/internal/models"
	"github.com/noah-isme/studynotes-api/internal/repository"
	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
	"github.com/noah-isme/studynotes-api/pkg/export"
)

// Fixed replies used when no model answer can be produced.
const (
	NoSubjectFileAnswer = "No file found in this chapter. Please upload a PDF notes file first so I can read it!"
	InferenceApology    = "Sorry, I couldn't reach the AI assistant. Please try again in a moment."
)

type conversationRepository interface {
	FindByStudentAndChapter(ctx context.Context, studentID, chapterID string) (*models.Conversation, error)
	GetOrCreate(ctx context.Context, studentID, chapterID string) (*models.Conversation, error)
	AppendTurn(ctx context.Context, turn *models.Turn) error
	ListTurns(ctx context.Context, conversationID string) ([]models.Turn, error)
}

type conversationChapterRepository interface {
	FindByID(ctx context.Context, id string) (*models.Chapter, error)
	AddConversation(ctx context.Context, chapterID, conversationID string) (bool, error)
}

type answerer interface {
	Ask(ctx context.Context, question, fileID string) (string, error)
}

type transcriptRenderer interface {
	Render(t export.Transcript) ([]byte, error)
	ContentType() string
	Extension() string
}

// ConversationServiceConfig tunes the orchestrator.
type ConversationServiceConfig struct {
	InferenceTimeout time.Duration
	Policy           models.SubjectFilePolicy
}

// ConversationService records chat turns and asks the inference service to
// answer them against the chapter's subject file.
type ConversationService struct {
	conversations conversationRepository
	chapters      conversationChapterRepository
	inference     answerer
	exporters     map[string]transcriptRenderer
	metrics       *MetricsService
	logger        *zap.Logger
	cfg           ConversationServiceConfig
}

// NewConversationService constructs a ConversationService with CSV and PDF
// transcript exporters.
func NewConversationService(conversations conversationRepository, chapters conversationChapterRepository, inference answerer, metrics *MetricsService, logger *zap.Logger, cfg ConversationServiceConfig) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.InferenceTimeout <= 0 {
		cfg.InferenceTimeout = 60 * time.Second
	}
	if cfg.Policy == nil {
		cfg.Policy = models.FirstUploaded
	}
	csvExporter := export.NewCSVExporter()
	pdfExporter := export.NewPDFExporter()
	return &ConversationService{
		conversations: conversations,
		chapters:      chapters,
		inference:     inference,
		exporters: map[string]transcriptRenderer{
			csvExporter.Extension(): csvExporter,
			pdfExporter.Extension(): pdfExporter,
		},
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Send records the student's message, answers it and records the answer.
// The student turn is persisted before the chapter is resolved, so it survives
// a missing chapter. Inference failures degrade to a fixed apology.
func (s *ConversationService) Send(ctx context.Context, chapterID string, req dto.SendMessageRequest) (*dto.ChatReply, error) {
	message := req.Content()
	studentID := strings.TrimSpace(req.StudentID)
	chapterID = strings.TrimSpace(chapterID)
	switch {
	case message == "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is required")
	case studentID == "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	case chapterID == "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "chapterId is required")
	}

	conversation, err := s.conversations.GetOrCreate(ctx, studentID, chapterID)
	if err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Internal(err, "failed to open conversation")
	}
	if err := s.appendTurn(ctx, conversation.ID, models.SenderStudent, message); err != nil {
		return nil, err
	}

	chapter, err := s.chapters.FindByID(ctx, chapterID)
	if err != nil {
		return nil, notFoundOr(err, "Chapter not found", "failed to load chapter")
	}
	if _, err := s.chapters.AddConversation(ctx, chapter.ID, conversation.ID); err != nil {
		return nil, appErrors.Internal(err, "failed to link conversation to chapter")
	}

	fileID, ok := s.cfg.Policy(chapter)
	if !ok {
		s.metrics.RecordInference(InferenceSkipped, 0)
		return s.reply(ctx, conversation, NoSubjectFileAnswer)
	}

	answer := s.ask(ctx, message, fileID)

	// The answer is persisted even if the client has gone away.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.appendTurn(persistCtx, conversation.ID, models.SenderAssistant, answer); err != nil {
		return nil, err
	}
	return s.reply(persistCtx, conversation, answer)
}

func (s *ConversationService) ask(ctx context.Context, question, fileID string) string {
	if s.inference == nil {
		s.metrics.RecordInference(InferenceFallback, 0)
		return InferenceApology
	}
	askCtx, cancel := context.WithTimeout(ctx, s.cfg.InferenceTimeout)
	defer cancel()

	start := time.Now()
	answer, err := s.inference.Ask(askCtx, question, fileID)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Warn("inference request failed",
			zap.String("file_id", fileID), zap.Duration("elapsed", elapsed), zap.Error(err))
		s.metrics.RecordInference(InferenceFallback, elapsed)
		return InferenceApology
	}
	s.metrics.RecordInference(InferenceAnswered, elapsed)
	return answer
}

func (s *ConversationService) appendTurn(ctx context.Context, conversationID, sender, text string) error {
	turn := &models.Turn{ConversationID: conversationID, Sender: sender, Text: text}
	if err := s.conversations.AppendTurn(ctx, turn); err != nil {
		s.logger.Error("failed to append turn",
			zap.String("conversation_id", conversationID), zap.String("sender", sender), zap.Error(err))
		return appErrors.Internal(err, "failed to save message")
	}
	return nil
}

func (s *ConversationService) reply(ctx context.Context, conversation *models.Conversation, answer string) (*dto.ChatReply, error) {
	turns, err := s.conversations.ListTurns(ctx, conversation.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load conversation")
	}
	return &dto.ChatReply{Answer: answer, Conversation: dto.NewConversationResponse(conversation, turns)}, nil
}

// Get returns the conversation for a student and chapter, or an empty
// placeholder when none has started yet.
func (s *ConversationService) Get(ctx context.Context, query dto.ConversationQuery) (*dto.ConversationResponse, error) {
	conversation, turns, err := s.load(ctx, query)
	if err != nil {
		return nil, err
	}
	return dto.NewConversationResponse(conversation, turns), nil
}

// Export renders the conversation transcript as csv (default) or pdf.
func (s *ConversationService) Export(ctx context.Context, query dto.ConversationQuery) (*dto.TranscriptDocument, error) {
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	conversation, turns, err := s.load(ctx, query)
	if err != nil {
		return nil, err
	}

	transcript := export.Transcript{Title: "Conversation transcript", Lines: make([]export.Line, 0, len(turns))}
	if chapter, err := s.chapters.FindByID(ctx, query.ChapterID); err == nil {
		transcript.Title = fmt.Sprintf("Conversation transcript: %s", chapter.Title)
	}
	for _, turn := range turns {
		transcript.Lines = append(transcript.Lines, export.Line{Sender: turn.Sender, Text: turn.Text, Timestamp: turn.CreatedAt})
	}

	content, err := renderer.Render(transcript)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render transcript")
	}
	name := query.ChapterID
	if conversation != nil {
		name = conversation.ID
	}
	return &dto.TranscriptDocument{
		Filename:    fmt.Sprintf("conversation-%s.%s", name, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

func (s *ConversationService) load(ctx context.Context, query dto.ConversationQuery) (*models.Conversation, []models.Turn, error) {
	studentID := strings.TrimSpace(query.StudentID)
	chapterID := strings.TrimSpace(query.ChapterID)
	if studentID == "" || chapterID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "chapterId and studentId are required")
	}
	conversation, err := s.conversations.FindByStudentAndChapter(ctx, studentID, chapterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, appErrors.Internal(err, "failed to load conversation")
	}
	turns, err := s.conversations.ListTurns(ctx, conversation.ID)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load conversation")
	}
	return conversation, turns, nil
}
