package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Meeting struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title           string    `gorm:"size:512;not null"`
	DurationSeconds int       `gorm:"not null;default:0"`
	TotalChunks     *int
	CreatedAt       time.Time        `gorm:"not null"`
	UpdatedAt       time.Time        `gorm:"not null"`
	Objects         []Object         `gorm:"constraint:OnDelete:CASCADE"`
	Transcriptions  []Transcription  `gorm:"constraint:OnDelete:CASCADE"`
	Messages        []MeetingMessage `gorm:"constraint:OnDelete:CASCADE"`
}

type Object struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	MeetingID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Type        string    `gorm:"size:32;not null;default:recording"`
	Key         string    `gorm:"size:1024;not null"`
	SizeBytes   int64     `gorm:"not null"`
	ContentType string    `gorm:"size:255;not null"`
	ChunkIndex  *int      `gorm:"index"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type Transcription struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	MeetingID       uuid.UUID `gorm:"type:uuid;index;not null"`
	Content         string    `gorm:"type:text;not null"`
	VTT             *string   `gorm:"column:vtt;type:text"`
	ChunkIndex      *int
	ChunkDurationMs *int
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

type MeetingMessage struct {
	ID        string         `gorm:"size:64;primaryKey"`
	MeetingID uuid.UUID      `gorm:"type:uuid;index;not null"`
	Role      string         `gorm:"size:16;not null"`
	Parts     datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ExternalID string    `gorm:"size:255;uniqueIndex;not null"`
	FullName   string    `gorm:"size:255;not null"`
	Email      string    `gorm:"size:255;uniqueIndex;not null"`
	AvatarURL  *string   `gorm:"size:1024"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
