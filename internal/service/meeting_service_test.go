package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umo-app/umo/internal/domain"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/storage"
)

type meetingFixture struct {
	meetings       *repository.InMemoryMeetingRepository
	objects        *repository.InMemoryObjectRepository
	transcriptions *repository.InMemoryTranscriptionRepository
	store          *storage.InMemoryObjectStore
	service        *MeetingService
}

func newMeetingFixture(t *testing.T) *meetingFixture {
	t.Helper()

	f := &meetingFixture{
		meetings:       repository.NewInMemoryMeetingRepository(),
		objects:        repository.NewInMemoryObjectRepository(),
		transcriptions: repository.NewInMemoryTranscriptionRepository(),
		store:          storage.NewInMemoryObjectStore(),
	}
	f.service = NewMeetingService(f.meetings, f.objects, f.transcriptions, f.store, nil)
	return f
}

func (f *meetingFixture) addChunk(t *testing.T, meetingID uuid.UUID, index int) *domain.StoredObject {
	t.Helper()
	object := domain.NewChunkObject(meetingID, index, 5, "audio/webm")
	require.NoError(t, f.store.Put(context.Background(), object.Key, []byte("audio"), "audio/webm"))
	require.NoError(t, f.objects.Create(context.Background(), object))
	return object
}

func TestMeetingService_CreateRequiresTitle(t *testing.T) {
	f := newMeetingFixture(t)

	_, err := f.service.CreateMeeting(context.Background(), "")
	assert.Error(t, err)

	meeting, err := f.service.CreateMeeting(context.Background(), "New meeting")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, meeting.ID)
}

func TestMeetingService_DetailReportsTranscriptionState(t *testing.T) {
	f := newMeetingFixture(t)
	ctx := context.Background()

	meeting, err := f.service.CreateMeeting(ctx, "New meeting")
	require.NoError(t, err)

	// No recording yet: nothing pending.
	detail, err := f.service.GetMeeting(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.RecordingKeys)
	assert.False(t, detail.TranscriptionPending)
	assert.Nil(t, detail.TranscriptionID)

	// Chunks uploaded, transcription not run: pending.
	f.addChunk(t, meeting.ID, 0)
	detail, err = f.service.GetMeeting(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Len(t, detail.RecordingKeys, 1)
	assert.True(t, detail.TranscriptionPending)

	// Final transcription stored: resolved.
	final := domain.NewFinalTranscription(meeting.ID, "text", "")
	require.NoError(t, f.transcriptions.CreateFinal(ctx, final))
	detail, err = f.service.GetMeeting(ctx, meeting.ID)
	require.NoError(t, err)
	assert.False(t, detail.TranscriptionPending)
	require.NotNil(t, detail.TranscriptionID)
	assert.Equal(t, final.ID, *detail.TranscriptionID)
}

func TestMeetingService_GetMeetingNotFound(t *testing.T) {
	f := newMeetingFixture(t)

	_, err := f.service.GetMeeting(context.Background(), uuid.New())
	require.ErrorIs(t, err, repository.ErrMeetingNotFound)
}

func TestMeetingService_FinishRecording(t *testing.T) {
	f := newMeetingFixture(t)
	ctx := context.Background()

	meeting, err := f.service.CreateMeeting(ctx, "New meeting")
	require.NoError(t, err)

	require.Error(t, f.service.FinishRecording(ctx, meeting.ID, -1, 3))
	require.NoError(t, f.service.FinishRecording(ctx, meeting.ID, 42, 5))

	stored, err := f.meetings.GetByID(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, stored.DurationSeconds)
	require.NotNil(t, stored.TotalChunks)
	assert.Equal(t, 5, *stored.TotalChunks)
}

func TestMeetingService_DeleteRemovesBlobs(t *testing.T) {
	f := newMeetingFixture(t)
	ctx := context.Background()

	meeting, err := f.service.CreateMeeting(ctx, "New meeting")
	require.NoError(t, err)
	f.addChunk(t, meeting.ID, 0)
	f.addChunk(t, meeting.ID, 1)
	require.Equal(t, 2, f.store.Len())

	require.NoError(t, f.service.DeleteMeeting(ctx, meeting.ID))

	_, err = f.meetings.GetByID(ctx, meeting.ID)
	require.ErrorIs(t, err, repository.ErrMeetingNotFound)
	assert.Zero(t, f.store.Len())
}
