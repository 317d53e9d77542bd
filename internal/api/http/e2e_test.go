package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umo-app/umo/internal/ai"
	"github.com/umo-app/umo/internal/domain"
	"github.com/umo-app/umo/internal/recorder"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/service"
	"github.com/umo-app/umo/internal/storage"
)

type stubSpeech struct {
	mu     sync.Mutex
	inputs [][]byte
	result *ai.SpeechResult
}

func (s *stubSpeech) Transcribe(ctx context.Context, audio []byte) (*ai.SpeechResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, append([]byte(nil), audio...))
	return s.result, nil
}

// scriptedSource feeds slices pushed by the test and closes the channel on
// Stop, like a capture device would.
type scriptedSource struct {
	slices chan recorder.Slice
}

func (s *scriptedSource) Start(ctx context.Context) (<-chan recorder.Slice, error) {
	return s.slices, nil
}

func (s *scriptedSource) Stop() error {
	close(s.slices)
	return nil
}

type e2eTestEnv struct {
	router         *gin.Engine
	meetings       *repository.InMemoryMeetingRepository
	objects        *repository.InMemoryObjectRepository
	transcriptions *repository.InMemoryTranscriptionRepository
	store          *storage.InMemoryObjectStore
	speech         *stubSpeech
	meetingID      uuid.UUID
}

func newE2ETestEnv(t *testing.T) *e2eTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &e2eTestEnv{
		meetings:       repository.NewInMemoryMeetingRepository(),
		objects:        repository.NewInMemoryObjectRepository(),
		transcriptions: repository.NewInMemoryTranscriptionRepository(),
		store:          storage.NewInMemoryObjectStore(),
		speech: &stubSpeech{
			result: &ai.SpeechResult{Text: "we planned the sprint"},
		},
	}

	meeting := domain.NewMeeting("New meeting")
	require.NoError(t, env.meetings.Create(context.Background(), meeting))
	env.meetingID = meeting.ID

	text := &stubText{generated: "Sprint Planning"}
	strategy := service.NewWholeFileStrategy(env.store, env.speech)

	meetingService := service.NewMeetingService(env.meetings, env.objects, env.transcriptions, env.store, nil)
	uploadService := service.NewUploadService(env.meetings, env.objects, env.transcriptions, env.store, nil)
	transcriptionService := service.NewTranscriptionService(env.meetings, env.objects, env.transcriptions, text, strategy, 0, nil)

	meetingController := NewMeetingController(meetingService, transcriptionService)
	uploadController := NewUploadController(uploadService, testCallbackKey)

	env.router = SetupRouter(nil, meetingController, uploadController, nil, nil, nil)
	return env
}

// A full pass over the wire: a recorder session uploads two slices through
// the HTTP client, Stop settles the duration, and the pipeline turns the
// uploaded chunks into one final transcription with a derived title.
func TestRecordStopTranscribeEndToEnd(t *testing.T) {
	env := newE2ETestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()
	ctx := context.Background()

	client := recorder.NewClient(srv.URL)
	meetingID, err := client.CreateMeeting(ctx, "Weekly sync")
	require.NoError(t, err)

	store, err := recorder.OpenChunkStore(filepath.Join(t.TempDir(), "chunks.db"))
	require.NoError(t, err)
	defer store.Close()

	source := &scriptedSource{slices: make(chan recorder.Slice)}
	session := recorder.NewSession(source, store, client, nil)
	require.NoError(t, session.Start(ctx, meetingID))

	source.slices <- recorder.Slice{Data: []byte("header-"), ContentType: "audio/webm"}
	source.slices <- recorder.Slice{Data: []byte("tail"), ContentType: "audio/webm"}

	result, err := session.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalChunks)
	assert.Empty(t, result.FailedChunks)

	// Stop reported the totals to the server.
	meeting, err := env.meetings.GetByID(ctx, meetingID)
	require.NoError(t, err)
	require.NotNil(t, meeting.TotalChunks)
	assert.Equal(t, 2, *meeting.TotalChunks)

	require.NoError(t, client.RunTranscription(ctx, meetingID))

	// The pipeline saw the slices concatenated in record order.
	require.Len(t, env.speech.inputs, 1)
	assert.Equal(t, []byte("header-tail"), env.speech.inputs[0])
	assert.Equal(t, 1, env.transcriptions.FinalCount(meetingID))

	meeting, err = env.meetings.GetByID(ctx, meetingID)
	require.NoError(t, err)
	assert.Equal(t, "Sprint Planning", meeting.Title)

	resp, err := http.Get(srv.URL + "/api/meetings/" + meetingID.String() + "/transcription")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRecordWS_RoundTrip(t *testing.T) {
	env := newE2ETestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()
	ctx := context.Background()

	uploader := recorder.NewWSUploader(srv.URL)
	defer uploader.Close()

	require.NoError(t, uploader.UploadChunk(ctx, env.meetingID, 0, "audio/webm", []byte("header-")))
	require.NoError(t, uploader.UploadChunk(ctx, env.meetingID, 1, "audio/webm", []byte("tail")))

	first, err := env.store.Get(ctx, domain.ChunkKey(env.meetingID, 0))
	require.NoError(t, err)
	assert.Equal(t, []byte("header-"), first)

	second, err := env.store.Get(ctx, domain.ChunkKey(env.meetingID, 1))
	require.NoError(t, err)
	assert.Equal(t, []byte("tail"), second)

	// The server rejects the frame and the uploader surfaces the ack error.
	err = uploader.UploadChunk(ctx, env.meetingID, -1, "audio/webm", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid chunk index")
}
