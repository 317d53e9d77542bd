package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umo-app/umo/internal/domain"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/storage"
)

type uploadFixture struct {
	meetings       *repository.InMemoryMeetingRepository
	objects        *repository.InMemoryObjectRepository
	transcriptions *repository.InMemoryTranscriptionRepository
	store          *storage.InMemoryObjectStore
	service        *UploadService
	meetingID      uuid.UUID
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()

	f := &uploadFixture{
		meetings:       repository.NewInMemoryMeetingRepository(),
		objects:        repository.NewInMemoryObjectRepository(),
		transcriptions: repository.NewInMemoryTranscriptionRepository(),
		store:          storage.NewInMemoryObjectStore(),
	}

	meeting := domain.NewMeeting("New meeting")
	require.NoError(t, f.meetings.Create(context.Background(), meeting))
	f.meetingID = meeting.ID

	f.service = NewUploadService(f.meetings, f.objects, f.transcriptions, f.store, nil)
	return f
}

func TestUploadService_UploadChunkStoresBlobAndRow(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()

	object, err := f.service.UploadChunk(ctx, f.meetingID, 3, []byte("audio"), "audio/webm")
	require.NoError(t, err)

	expectedKey := fmt.Sprintf("meetings/%s/chunks/3", f.meetingID)
	assert.Equal(t, expectedKey, object.Key)
	require.NotNil(t, object.ChunkIndex)
	assert.Equal(t, 3, *object.ChunkIndex)
	assert.Equal(t, int64(5), object.SizeBytes)

	data, err := f.store.Get(ctx, expectedKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), data)
	assert.Equal(t, 1, f.objects.Count())
}

func TestUploadService_UploadChunkUnknownMeeting(t *testing.T) {
	f := newUploadFixture(t)

	_, err := f.service.UploadChunk(context.Background(), uuid.New(), 0, []byte("audio"), "audio/webm")
	require.ErrorIs(t, err, repository.ErrMeetingNotFound)
	assert.Zero(t, f.store.Len())
	assert.Zero(t, f.objects.Count())
}

func TestUploadService_UploadChunkRejectsInvalidInput(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()

	_, err := f.service.UploadChunk(ctx, f.meetingID, -1, []byte("audio"), "audio/webm")
	assert.Error(t, err)

	_, err = f.service.UploadChunk(ctx, f.meetingID, 0, nil, "audio/webm")
	assert.Error(t, err)

	assert.Zero(t, f.objects.Count())
}

func TestUploadService_RegisterUploadKeepsChunkIndexNil(t *testing.T) {
	f := newUploadFixture(t)

	object, err := f.service.RegisterUpload(context.Background(), f.meetingID, "meetings/whole/file.webm", 1024, "audio/webm")
	require.NoError(t, err)
	assert.Nil(t, object.ChunkIndex)
	assert.Equal(t, "meetings/whole/file.webm", object.Key)
}

func TestUploadService_SaveCallbackResultIsIdempotent(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.SaveCallbackResult(ctx, f.meetingID, "the transcript", "WEBVTT\n\n", "Launch Review"))
	// Duplicate delivery from a retrying worker is absorbed.
	require.NoError(t, f.service.SaveCallbackResult(ctx, f.meetingID, "the transcript", "WEBVTT\n\n", "Launch Review"))

	assert.Equal(t, 1, f.transcriptions.FinalCount(f.meetingID))

	meeting, err := f.meetings.GetByID(ctx, f.meetingID)
	require.NoError(t, err)
	assert.Equal(t, "Launch Review", meeting.Title)
}

func TestUploadService_IssueUploadURL(t *testing.T) {
	f := newUploadFixture(t)
	ctx := context.Background()

	target, err := f.service.IssueUploadURL(ctx, f.meetingID, "audio/mp4")
	require.NoError(t, err)

	prefix := fmt.Sprintf("meetings/%s/", f.meetingID)
	assert.True(t, strings.HasPrefix(target.Key, prefix))
	assert.NotContains(t, target.Key, "/chunks/")
	assert.Equal(t, "memory://"+target.Key, target.URL)

	// Two issued URLs never point at the same key.
	second, err := f.service.IssueUploadURL(ctx, f.meetingID, "audio/mp4")
	require.NoError(t, err)
	assert.NotEqual(t, target.Key, second.Key)
}

func TestUploadService_IssueUploadURLUnknownMeeting(t *testing.T) {
	f := newUploadFixture(t)

	_, err := f.service.IssueUploadURL(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, repository.ErrMeetingNotFound)
}
