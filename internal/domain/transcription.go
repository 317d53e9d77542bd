package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transcription is one speech-to-text result for a meeting. ChunkIndex nil
// marks the final merged transcription for the whole meeting; a non-nil index
// marks a per-chunk partial produced by the chunked strategy.
type Transcription struct {
	ID              uuid.UUID
	MeetingID       uuid.UUID
	Content         string
	VTT             string
	ChunkIndex      *int
	ChunkDurationMs *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (t *Transcription) IsFinal() bool {
	return t.ChunkIndex == nil
}

func NewFinalTranscription(meetingID uuid.UUID, content, vtt string) *Transcription {
	now := time.Now().UTC()
	return &Transcription{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Content:   content,
		VTT:       vtt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewChunkTranscription(meetingID uuid.UUID, chunkIndex int, content, vtt string, durationMs int) *Transcription {
	idx := chunkIndex
	dur := durationMs
	now := time.Now().UTC()
	return &Transcription{
		ID:              uuid.New(),
		MeetingID:       meetingID,
		Content:         content,
		VTT:             vtt,
		ChunkIndex:      &idx,
		ChunkDurationMs: &dur,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
