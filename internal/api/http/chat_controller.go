package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/umo-app/umo/internal/api/http/converter"
	"github.com/umo-app/umo/internal/domain"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/service"
)

type ChatController struct {
	chat service.ChatInteractor
}

func NewChatController(chat service.ChatInteractor) *ChatController {
	return &ChatController{chat: chat}
}

type apiMessage struct {
	ID    string               `json:"id" binding:"required"`
	Role  string               `json:"role" binding:"required"`
	Parts []domain.MessagePart `json:"parts" binding:"required"`
}

func (m apiMessage) toDomain(meetingID uuid.UUID) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:        m.ID,
		MeetingID: meetingID,
		Role:      domain.MessageRole(m.Role),
		Parts:     m.Parts,
	}
}

// Chat streams the assistant's reply as server-sent events. The request body
// carries the conversation so far; the last user message is persisted before
// generation and the reply after it.
func (c *ChatController) Chat(ctx *gin.Context) {
	meetingID, err := uuid.Parse(ctx.Param("meetingID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	type request struct {
		Messages []apiMessage `json:"messages" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if len(req.Messages) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "messages must not be empty"})
		return
	}

	incoming := make([]*domain.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		incoming = append(incoming, m.toDomain(meetingID))
	}

	// SSEvent sets the event-stream content type on the first write, so a
	// failure before any delta can still answer with a JSON error.
	ctx.Writer.Header().Set("Cache-Control", "no-cache")

	reply, err := c.chat.StreamReply(ctx.Request.Context(), meetingID, incoming, func(delta string) error {
		ctx.SSEvent("delta", delta)
		ctx.Writer.Flush()
		return nil
	})
	if err != nil {
		// Nothing was streamed on these paths, a JSON error is still valid.
		if !ctx.Writer.Written() {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, repository.ErrMeetingNotFound):
				status = http.StatusNotFound
			case errors.Is(err, service.ErrTranscriptionPending):
				status = http.StatusConflict
			}
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.SSEvent("error", err.Error())
		ctx.Writer.Flush()
		return
	}

	ctx.SSEvent("done", gin.H{"id": reply.ID})
	ctx.Writer.Flush()
}

// SaveMessage persists a single chat message. Re-sending the same message id
// is a no-op, so clients can retry safely.
func (c *ChatController) SaveMessage(ctx *gin.Context) {
	meetingID, err := uuid.Parse(ctx.Param("meetingID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	var req apiMessage
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := c.chat.SaveMessage(ctx.Request.Context(), req.toDomain(meetingID)); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrMeetingNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

// ListMessages returns the chat history. Opening the chat for the first time
// after transcription generates the summary as the first assistant message;
// before transcription the history is simply empty.
func (c *ChatController) ListMessages(ctx *gin.Context) {
	meetingID, err := uuid.Parse(ctx.Param("meetingID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	if err := c.chat.EnsureSummary(ctx.Request.Context(), meetingID); err != nil &&
		!errors.Is(err, service.ErrTranscriptionPending) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	messages, err := c.chat.ListMessages(ctx.Request.Context(), meetingID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"messages": converter.MessagesToApi(messages)})
}
