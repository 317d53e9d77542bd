package domain

import (
	"time"

	"github.com/google/uuid"
)

// Meeting is the aggregate root. Objects, transcriptions and chat messages
// all hang off a meeting and are removed with it.
type Meeting struct {
	ID              uuid.UUID
	Title           string
	DurationSeconds int
	TotalChunks     *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewMeeting creates a meeting with a placeholder title. Duration and chunk
// count are set once when recording stops; the title is overwritten once the
// transcription completes.
func NewMeeting(title string) *Meeting {
	now := time.Now().UTC()
	return &Meeting{
		ID:        uuid.New(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
