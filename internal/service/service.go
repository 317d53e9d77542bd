package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/umo-app/umo/internal/domain"
)

var (
	// ErrTranscriptionPending is returned by chat operations invoked before
	// the meeting has a final transcription.
	ErrTranscriptionPending = errors.New("meeting has no final transcription yet")
)

// MeetingDetail is a meeting together with the recording and transcription
// state the meeting page needs in one round trip.
type MeetingDetail struct {
	Meeting              *domain.Meeting
	RecordingKeys        []string
	TranscriptionID      *uuid.UUID
	TranscriptionPending bool
}

type MeetingInteractor interface {
	CreateMeeting(ctx context.Context, title string) (*domain.Meeting, error)
	GetMeeting(ctx context.Context, id uuid.UUID) (*MeetingDetail, error)
	ListMeetings(ctx context.Context) ([]*domain.Meeting, error)
	// FinishRecording sets the meeting's duration and chunk count once,
	// when recording stops.
	FinishRecording(ctx context.Context, id uuid.UUID, durationSeconds, totalChunks int) error
	DeleteMeeting(ctx context.Context, id uuid.UUID) error
	GetFinalTranscription(ctx context.Context, id uuid.UUID) (*domain.Transcription, error)
}

// UploadTarget is a pre-signed destination for a direct-to-storage upload.
// The client PUTs the recording to URL and then registers Key.
type UploadTarget struct {
	Key string
	URL string
}

type UploadInteractor interface {
	UploadChunk(ctx context.Context, meetingID uuid.UUID, chunkIndex int, data []byte, contentType string) (*domain.StoredObject, error)
	// IssueUploadURL opens the single-file path: a fresh storage key plus a
	// pre-signed PUT URL the client uploads the whole recording to.
	IssueUploadURL(ctx context.Context, meetingID uuid.UUID, contentType string) (*UploadTarget, error)
	RegisterUpload(ctx context.Context, meetingID uuid.UUID, key string, sizeBytes int64, contentType string) (*domain.StoredObject, error)
	// SaveCallbackResult persists a transcription produced by the external
	// transcription worker, plus its derived title when present.
	SaveCallbackResult(ctx context.Context, meetingID uuid.UUID, content, vtt, title string) error
}

type TranscriptionInteractor interface {
	// Run executes the transcription pipeline for the meeting. Safe to call
	// repeatedly: once a final transcription exists it is a no-op.
	Run(ctx context.Context, meetingID uuid.UUID) error
}

type ChatInteractor interface {
	// EnsureSummary generates and stores the structured meeting summary as
	// the first assistant message, unless the chat already has messages.
	EnsureSummary(ctx context.Context, meetingID uuid.UUID) error
	// StreamReply grounds the model in the final transcription, streams the
	// assistant's answer through fn and persists both sides of the exchange.
	StreamReply(ctx context.Context, meetingID uuid.UUID, incoming []*domain.ChatMessage, fn func(delta string) error) (*domain.ChatMessage, error)
	SaveMessage(ctx context.Context, message *domain.ChatMessage) error
	ListMessages(ctx context.Context, meetingID uuid.UUID) ([]*domain.ChatMessage, error)
}

type UserInteractor interface {
	SyncUser(ctx context.Context, externalID, fullName, email, avatarURL string) error
	RemoveUser(ctx context.Context, externalID string) error
	GetUser(ctx context.Context, externalID string) (*domain.User, error)
}
