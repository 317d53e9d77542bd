package http

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umo-app/umo/internal/domain"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/service"
	"github.com/umo-app/umo/internal/storage"
)

const testCallbackKey = "callback-secret"

type uploadTestEnv struct {
	router         *gin.Engine
	meetings       *repository.InMemoryMeetingRepository
	objects        *repository.InMemoryObjectRepository
	transcriptions *repository.InMemoryTranscriptionRepository
	store          *storage.InMemoryObjectStore
	meetingID      uuid.UUID
}

func newUploadTestEnv(t *testing.T) *uploadTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &uploadTestEnv{
		meetings:       repository.NewInMemoryMeetingRepository(),
		objects:        repository.NewInMemoryObjectRepository(),
		transcriptions: repository.NewInMemoryTranscriptionRepository(),
		store:          storage.NewInMemoryObjectStore(),
	}

	meeting := domain.NewMeeting("New meeting")
	require.NoError(t, env.meetings.Create(context.Background(), meeting))
	env.meetingID = meeting.ID

	uploadService := service.NewUploadService(env.meetings, env.objects, env.transcriptions, env.store, nil)
	meetingService := service.NewMeetingService(env.meetings, env.objects, env.transcriptions, env.store, nil)

	meetingController := NewMeetingController(meetingService, nil)
	uploadController := NewUploadController(uploadService, testCallbackKey)

	env.router = SetupRouter(nil, meetingController, uploadController, nil, nil, nil)
	return env
}

func multipartChunk(t *testing.T, chunkIndex string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("chunk_index", chunkIndex))
	part, err := writer.CreateFormFile("chunk", "chunk.webm")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestUploadChunk_Multipart(t *testing.T) {
	env := newUploadTestEnv(t)

	body, contentType := multipartChunk(t, "2", []byte("audio-bytes"))
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/meetings/%s/chunks", env.meetingID), body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	expectedKey := fmt.Sprintf("meetings/%s/chunks/2", env.meetingID)
	assert.Contains(t, rec.Body.String(), expectedKey)

	data, err := env.store.Get(context.Background(), expectedKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), data)
}

func TestUploadChunk_UnknownMeeting(t *testing.T) {
	env := newUploadTestEnv(t)

	body, contentType := multipartChunk(t, "0", []byte("audio"))
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/meetings/%s/chunks", uuid.New()), body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, env.objects.Count())
}

func TestUploadChunk_InvalidIndex(t *testing.T) {
	env := newUploadTestEnv(t)

	body, contentType := multipartChunk(t, "not-a-number", []byte("audio"))
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/meetings/%s/chunks", env.meetingID), body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, env.objects.Count())
}

func callbackRequest(env *uploadTestEnv, auth string) *httptest.ResponseRecorder {
	payload := fmt.Sprintf(`{
		"meeting_id": %q,
		"content": "the transcript",
		"vtt": "WEBVTT\n\n",
		"title": "Launch Review"
	}`, env.meetingID)

	req := httptest.NewRequest(http.MethodPost, "/api/transcription/callback", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestTranscriptionCallback_RequiresBearer(t *testing.T) {
	env := newUploadTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, callbackRequest(env, "").Code)
	assert.Equal(t, http.StatusUnauthorized, callbackRequest(env, "Bearer wrong-key").Code)
	assert.Equal(t, http.StatusUnauthorized, callbackRequest(env, testCallbackKey).Code)

	// Rejected deliveries leave no trace.
	assert.Zero(t, env.transcriptions.FinalCount(env.meetingID))
}

func TestTranscriptionCallback_StoresResult(t *testing.T) {
	env := newUploadTestEnv(t)

	rec := callbackRequest(env, "Bearer "+testCallbackKey)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, env.transcriptions.FinalCount(env.meetingID))
	meeting, err := env.meetings.GetByID(context.Background(), env.meetingID)
	require.NoError(t, err)
	assert.Equal(t, "Launch Review", meeting.Title)

	// A worker retry is absorbed.
	rec = callbackRequest(env, "Bearer "+testCallbackKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.transcriptions.FinalCount(env.meetingID))
}

func TestRegisterUpload(t *testing.T) {
	env := newUploadTestEnv(t)

	payload := fmt.Sprintf(`{
		"meeting_id": %q,
		"key": "meetings/%s/recording.webm",
		"size_bytes": 2048,
		"content_type": "audio/webm"
	}`, env.meetingID, env.meetingID)

	req := httptest.NewRequest(http.MethodPost, "/api/objects/register", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, env.objects.Count())
}

func TestCreateUploadURL(t *testing.T) {
	env := newUploadTestEnv(t)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/meetings/%s/upload-url", env.meetingID),
		strings.NewReader(`{"content_type":"audio/mp4"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, fmt.Sprintf(`"key":"meetings/%s/`, env.meetingID))
	assert.Contains(t, body, `"upload_url":"memory://meetings/`)
}

func TestCreateUploadURL_UnknownMeeting(t *testing.T) {
	env := newUploadTestEnv(t)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/meetings/%s/upload-url", uuid.New()), nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
