package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/umo-app/umo/internal/domain"
)

var (
	ErrMeetingNotFound          = errors.New("meeting not found")
	ErrObjectNotFound           = errors.New("object not found")
	ErrTranscriptionNotFound    = errors.New("transcription not found")
	ErrFinalTranscriptionExists = errors.New("final transcription already exists")
	ErrUserNotFound             = errors.New("user not found")
	ErrUserEmailExists          = errors.New("user with email already exists")
)

type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error)
	List(ctx context.Context) ([]*domain.Meeting, error)
	UpdateRecording(ctx context.Context, id uuid.UUID, durationSeconds, totalChunks int) error
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ObjectRepository interface {
	Create(ctx context.Context, object *domain.StoredObject) error
	// ListChunks returns the meeting's recording chunks with a non-nil chunk
	// index, ordered ascending by index.
	ListChunks(ctx context.Context, meetingID uuid.UUID) ([]*domain.StoredObject, error)
	ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*domain.StoredObject, error)
}

type TranscriptionRepository interface {
	// CreateFinal inserts the meeting's final transcription. The insert is
	// atomic: a second final row for the same meeting fails with
	// ErrFinalTranscriptionExists instead of duplicating.
	CreateFinal(ctx context.Context, transcription *domain.Transcription) error
	CreateChunk(ctx context.Context, transcription *domain.Transcription) error
	GetFinal(ctx context.Context, meetingID uuid.UUID) (*domain.Transcription, error)
}

type MessageRepository interface {
	// CreateIfAbsent inserts the message unless one with the same id already
	// exists; the duplicate case is success, not an error.
	CreateIfAbsent(ctx context.Context, message *domain.ChatMessage) error
	ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*domain.ChatMessage, error)
	HasMessages(ctx context.Context, meetingID uuid.UUID) (bool, error)
}

type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) error
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	DeleteByExternalID(ctx context.Context, externalID string) error
}
