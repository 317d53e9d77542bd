package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/umo-app/umo/internal/domain"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/storage"
)

type UploadService struct {
	meetings       repository.MeetingRepository
	objects        repository.ObjectRepository
	transcriptions repository.TranscriptionRepository
	store          storage.ObjectStore
	log            *slog.Logger
}

func NewUploadService(
	meetings repository.MeetingRepository,
	objects repository.ObjectRepository,
	transcriptions repository.TranscriptionRepository,
	store storage.ObjectStore,
	log *slog.Logger,
) *UploadService {
	if log == nil {
		log = slog.Default()
	}
	return &UploadService{
		meetings:       meetings,
		objects:        objects,
		transcriptions: transcriptions,
		store:          store,
		log:            log,
	}
}

// UploadChunk writes the blob first and registers the row second. The two
// steps are not atomic; a crash in between leaves an orphaned blob and the
// registry stays the source of truth.
func (s *UploadService) UploadChunk(ctx context.Context, meetingID uuid.UUID, chunkIndex int, data []byte, contentType string) (*domain.StoredObject, error) {
	if chunkIndex < 0 {
		return nil, errors.New("chunk index must be non-negative")
	}
	if len(data) == 0 {
		return nil, errors.New("chunk is empty")
	}
	if contentType == "" {
		contentType = "audio/webm"
	}

	if _, err := s.meetings.GetByID(ctx, meetingID); err != nil {
		return nil, err
	}

	object := domain.NewChunkObject(meetingID, chunkIndex, int64(len(data)), contentType)

	if err := s.store.Put(ctx, object.Key, data, contentType); err != nil {
		return nil, err
	}
	if err := s.objects.Create(ctx, object); err != nil {
		return nil, err
	}

	s.log.Info("chunk uploaded",
		slog.String("meeting_id", meetingID.String()),
		slog.Int("chunk_index", chunkIndex),
		slog.Int64("size_bytes", object.SizeBytes),
	)
	return object, nil
}

// uploadURLTTL bounds how long an issued upload URL stays valid.
const uploadURLTTL = 15 * time.Minute

// IssueUploadURL mints a storage key under the meeting and pre-signs a PUT
// URL for it, so whole-file recordings go straight to storage.
func (s *UploadService) IssueUploadURL(ctx context.Context, meetingID uuid.UUID, contentType string) (*UploadTarget, error) {
	if contentType == "" {
		contentType = "audio/webm"
	}

	if _, err := s.meetings.GetByID(ctx, meetingID); err != nil {
		return nil, err
	}

	signer, ok := s.store.(storage.UploadURLSigner)
	if !ok {
		return nil, errors.New("object storage does not support pre-signed uploads")
	}

	key := domain.FileKey(meetingID)
	url, err := signer.SignUpload(ctx, key, contentType, uploadURLTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info("upload url issued",
		slog.String("meeting_id", meetingID.String()),
		slog.String("key", key),
	)
	return &UploadTarget{Key: key, URL: url}, nil
}

// RegisterUpload records a whole-file recording that was uploaded directly
// to storage (single-file mode; chunk index stays nil).
func (s *UploadService) RegisterUpload(ctx context.Context, meetingID uuid.UUID, key string, sizeBytes int64, contentType string) (*domain.StoredObject, error) {
	if key == "" {
		return nil, errors.New("key is required")
	}
	if sizeBytes < 0 {
		return nil, errors.New("size must be non-negative")
	}

	if _, err := s.meetings.GetByID(ctx, meetingID); err != nil {
		return nil, err
	}

	object := domain.NewFileObject(meetingID, key, sizeBytes, contentType)
	if err := s.objects.Create(ctx, object); err != nil {
		return nil, err
	}

	return object, nil
}

// SaveCallbackResult stores the transcription delivered by the external
// transcription worker. A duplicate delivery is treated as success.
func (s *UploadService) SaveCallbackResult(ctx context.Context, meetingID uuid.UUID, content, vtt, title string) error {
	if content == "" {
		return errors.New("content is required")
	}

	transcription := domain.NewFinalTranscription(meetingID, content, vtt)
	if err := s.transcriptions.CreateFinal(ctx, transcription); err != nil {
		if !errors.Is(err, repository.ErrFinalTranscriptionExists) {
			return err
		}
	}

	if title != "" {
		if err := s.meetings.UpdateTitle(ctx, meetingID, title); err != nil {
			return err
		}
	}

	return nil
}
