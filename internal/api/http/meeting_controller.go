package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/umo-app/umo/internal/api/http/converter"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/service"
)

type MeetingController struct {
	meetings       service.MeetingInteractor
	transcriptions service.TranscriptionInteractor
}

func NewMeetingController(meetings service.MeetingInteractor, transcriptions service.TranscriptionInteractor) *MeetingController {
	return &MeetingController{meetings: meetings, transcriptions: transcriptions}
}

func (c *MeetingController) CreateMeeting(ctx *gin.Context) {
	type request struct {
		Title string `json:"title"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	meeting, err := c.meetings.CreateMeeting(ctx.Request.Context(), req.Title)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"meeting": converter.MeetingToApi(meeting)})
}

func (c *MeetingController) GetMeeting(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("meetingID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	detail, err := c.meetings.GetMeeting(ctx.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrMeetingNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"meeting": converter.MeetingDetailToApi(detail)})
}

func (c *MeetingController) ListMeetings(ctx *gin.Context) {
	meetings, err := c.meetings.ListMeetings(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]*converter.MeetingResponse, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, converter.MeetingToApi(m))
	}
	ctx.JSON(http.StatusOK, gin.H{"meetings": out})
}

func (c *MeetingController) FinishRecording(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("meetingID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	// Pointer fields so a legitimate zero (a sub-second recording) still
	// binds; required only rejects absent fields.
	type request struct {
		DurationSeconds *int `json:"duration_seconds" binding:"required"`
		TotalChunks     *int `json:"total_chunks" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := c.meetings.FinishRecording(ctx.Request.Context(), id, *req.DurationSeconds, *req.TotalChunks); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrMeetingNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (c *MeetingController) DeleteMeeting(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("meetingID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	if err := c.meetings.DeleteMeeting(ctx.Request.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrMeetingNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (c *MeetingController) GetTranscription(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("meetingID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	transcription, err := c.meetings.GetFinalTranscription(ctx.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrTranscriptionNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"transcription": converter.TranscriptionToApi(transcription)})
}

// RunTranscription kicks off the speech-to-text pipeline for a finished
// recording. Re-running after completion is a no-op.
func (c *MeetingController) RunTranscription(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("meetingID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	if err := c.transcriptions.Run(ctx.Request.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrMeetingNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
