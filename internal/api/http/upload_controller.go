package http

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/umo-app/umo/internal/api/http/converter"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/service"
)

// maxChunkBytes bounds one uploaded slice. Recorders emit ~10s of opus audio
// per slice, far below this.
const maxChunkBytes = 32 << 20

type UploadController struct {
	uploads     service.UploadInteractor
	callbackKey string
	upgrader    websocket.Upgrader
}

func NewUploadController(uploads service.UploadInteractor, callbackKey string) *UploadController {
	return &UploadController{
		uploads:     uploads,
		callbackKey: callbackKey,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// UploadChunk accepts one recorded slice as multipart form data with a
// chunk_index field and a chunk file part.
func (c *UploadController) UploadChunk(ctx *gin.Context) {
	meetingID, err := uuid.Parse(ctx.Param("meetingID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	chunkIndex, err := strconv.Atoi(ctx.PostForm("chunk_index"))
	if err != nil || chunkIndex < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid chunk index"})
		return
	}

	fileHeader, err := ctx.FormFile("chunk")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "chunk file is required"})
		return
	}
	if fileHeader.Size > maxChunkBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "chunk too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxChunkBytes))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/webm"
	}

	object, err := c.uploads.UploadChunk(ctx.Request.Context(), meetingID, chunkIndex, data, contentType)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrMeetingNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"key": object.Key})
}

type chunkFrame struct {
	ChunkIndex  int    `json:"chunk_index"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

type chunkAck struct {
	ChunkIndex int    `json:"chunk_index"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// RecordWS ingests recorded slices over a websocket. Each frame carries one
// base64-encoded slice and is acknowledged individually, so a recorder can
// keep a single connection open for the whole session.
func (c *UploadController) RecordWS(ctx *gin.Context) {
	meetingID, err := uuid.Parse(ctx.Param("meetingID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.String(http.StatusInternalServerError, "failed to upgrade connection")
		return
	}
	defer conn.Close()

	for {
		var frame chunkFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		ack := chunkAck{ChunkIndex: frame.ChunkIndex, OK: true}

		data, err := base64.StdEncoding.DecodeString(frame.Data)
		switch {
		case err != nil:
			ack.OK = false
			ack.Error = "invalid chunk encoding"
		case frame.ChunkIndex < 0:
			ack.OK = false
			ack.Error = "invalid chunk index"
		default:
			contentType := frame.ContentType
			if contentType == "" {
				contentType = "audio/webm"
			}
			if _, err := c.uploads.UploadChunk(ctx.Request.Context(), meetingID, frame.ChunkIndex, data, contentType); err != nil {
				ack.OK = false
				ack.Error = err.Error()
			}
		}

		if err := conn.WriteJSON(ack); err != nil {
			return
		}
	}
}

// CreateUploadURL issues a pre-signed PUT URL for a whole-file recording.
// The client uploads to the URL and then registers the returned key.
func (c *UploadController) CreateUploadURL(ctx *gin.Context) {
	meetingID, err := uuid.Parse(ctx.Param("meetingID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	type request struct {
		ContentType string `json:"content_type"`
	}

	var req request
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	target, err := c.uploads.IssueUploadURL(ctx.Request.Context(), meetingID, req.ContentType)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrMeetingNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"key": target.Key, "upload_url": target.URL})
}

// RegisterUpload records an object that was uploaded to storage out of band,
// for whole-file recordings that bypass the chunk endpoints.
func (c *UploadController) RegisterUpload(ctx *gin.Context) {
	type request struct {
		MeetingID   string `json:"meeting_id" binding:"required"`
		Key         string `json:"key" binding:"required"`
		SizeBytes   int64  `json:"size_bytes"`
		ContentType string `json:"content_type"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	meetingID, err := uuid.Parse(req.MeetingID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	object, err := c.uploads.RegisterUpload(ctx.Request.Context(), meetingID, req.Key, req.SizeBytes, req.ContentType)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrMeetingNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"object": converter.ObjectToApi(object)})
}

// TranscriptionCallback receives results from an external transcription
// worker. Authenticated by a shared bearer key compared in constant time.
func (c *UploadController) TranscriptionCallback(ctx *gin.Context) {
	if !c.authorized(ctx.GetHeader("Authorization")) {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	type request struct {
		MeetingID string `json:"meeting_id" binding:"required"`
		Content   string `json:"content" binding:"required"`
		VTT       string `json:"vtt"`
		Title     string `json:"title"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	meetingID, err := uuid.Parse(req.MeetingID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	if err := c.uploads.SaveCallbackResult(ctx.Request.Context(), meetingID, req.Content, req.VTT, req.Title); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrMeetingNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (c *UploadController) authorized(header string) bool {
	if c.callbackKey == "" {
		return false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.callbackKey)) == 1
}
