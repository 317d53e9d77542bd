package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/umo-app/umo/internal/domain"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/storage"
	"github.com/umo-app/umo/lib/logger/sl"
)

type MeetingService struct {
	meetings       repository.MeetingRepository
	objects        repository.ObjectRepository
	transcriptions repository.TranscriptionRepository
	store          storage.ObjectStore
	log            *slog.Logger
}

func NewMeetingService(
	meetings repository.MeetingRepository,
	objects repository.ObjectRepository,
	transcriptions repository.TranscriptionRepository,
	store storage.ObjectStore,
	log *slog.Logger,
) *MeetingService {
	if log == nil {
		log = slog.Default()
	}
	return &MeetingService{
		meetings:       meetings,
		objects:        objects,
		transcriptions: transcriptions,
		store:          store,
		log:            log,
	}
}

func (s *MeetingService) CreateMeeting(ctx context.Context, title string) (*domain.Meeting, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}

	meeting := domain.NewMeeting(title)
	if err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, err
	}

	s.log.Info("meeting created", slog.String("meeting_id", meeting.ID.String()))
	return meeting, nil
}

func (s *MeetingService) GetMeeting(ctx context.Context, id uuid.UUID) (*MeetingDetail, error) {
	meeting, err := s.meetings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	objects, err := s.objects.ListByMeeting(ctx, id)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(objects))
	for _, object := range objects {
		if object.Type == domain.ObjectTypeRecording {
			keys = append(keys, object.Key)
		}
	}

	detail := &MeetingDetail{
		Meeting:       meeting,
		RecordingKeys: keys,
	}

	final, err := s.transcriptions.GetFinal(ctx, id)
	switch {
	case err == nil:
		transcriptionID := final.ID
		detail.TranscriptionID = &transcriptionID
	case errors.Is(err, repository.ErrTranscriptionNotFound):
		detail.TranscriptionPending = len(keys) > 0
	default:
		return nil, err
	}

	return detail, nil
}

func (s *MeetingService) ListMeetings(ctx context.Context) ([]*domain.Meeting, error) {
	return s.meetings.List(ctx)
}

func (s *MeetingService) FinishRecording(ctx context.Context, id uuid.UUID, durationSeconds, totalChunks int) error {
	if durationSeconds < 0 || totalChunks < 0 {
		return errors.New("duration and chunk count must be non-negative")
	}

	if err := s.meetings.UpdateRecording(ctx, id, durationSeconds, totalChunks); err != nil {
		return err
	}

	s.log.Info("recording finished",
		slog.String("meeting_id", id.String()),
		slog.Int("duration_seconds", durationSeconds),
		slog.Int("total_chunks", totalChunks),
	)
	return nil
}

// DeleteMeeting removes the registry rows and best-effort deletes the blobs.
// A blob left behind after a failed delete is unreachable, not harmful.
func (s *MeetingService) DeleteMeeting(ctx context.Context, id uuid.UUID) error {
	objects, err := s.objects.ListByMeeting(ctx, id)
	if err != nil {
		return err
	}

	if err := s.meetings.Delete(ctx, id); err != nil {
		return err
	}

	for _, object := range objects {
		if err := s.store.Delete(ctx, object.Key); err != nil {
			s.log.Warn("failed to delete stored object",
				slog.String("key", object.Key), sl.Err(err))
		}
	}

	s.log.Info("meeting deleted", slog.String("meeting_id", id.String()))
	return nil
}

func (s *MeetingService) GetFinalTranscription(ctx context.Context, id uuid.UUID) (*domain.Transcription, error) {
	return s.transcriptions.GetFinal(ctx, id)
}
