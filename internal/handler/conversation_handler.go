package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studynotes-api/internal/dto"
	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
	"github.com/noah-isme/studynotes-api/pkg/response"
)

type conversationService interface {
	Send(ctx context.Context, chapterID string, req dto.SendMessageRequest) (*dto.ChatReply, error)
	Get(ctx context.Context, query dto.ConversationQuery) (*dto.ConversationResponse, error)
	Export(ctx context.Context, query dto.ConversationQuery) (*dto.TranscriptDocument, error)
}

// ConversationHandler exposes the chapter chat endpoints.
type ConversationHandler struct {
	service conversationService
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(service conversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// Send godoc
// @Summary Ask a question about a chapter
// @Description Inference failures still answer 200 with an apology.
// @Tags Conversations
// @Accept json
// @Produce json
// @Param chapterId path string true "Chapter ID"
// @Param payload body dto.SendMessageRequest true "Message"
// @Success 200 {object} dto.ChatReply
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /conversations/{chapterId} [post]
func (h *ConversationHandler) Send(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid message payload"))
		return
	}
	reply, err := h.service.Send(c.Request.Context(), c.Param("chapterId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, reply)
}

// Get godoc
// @Summary Get the conversation for a student and chapter
// @Tags Conversations
// @Produce json
// @Param chapterId query string true "Chapter ID"
// @Param studentId query string true "Student ID"
// @Success 200 {object} dto.ConversationResponse
// @Router /conversations [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	var query dto.ConversationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	conversation, err := h.service.Get(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, conversation)
}

// Export godoc
// @Summary Download a conversation transcript
// @Tags Conversations
// @Produce text/csv,application/pdf
// @Param chapterId query string true "Chapter ID"
// @Param studentId query string true "Student ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /conversations/export [get]
func (h *ConversationHandler) Export(c *gin.Context) {
	var query dto.ConversationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	doc, err := h.service.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(doc.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
