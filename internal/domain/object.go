package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ObjectType string

const (
	ObjectTypeRecording ObjectType = "recording"
)

// StoredObject is the registry row for one blob in object storage: either a
// single audio chunk (ChunkIndex set) or a whole-file recording (ChunkIndex
// nil). Chunk indexes for a meeting are contiguous from 0 and ordering by
// them reconstructs the original record order.
type StoredObject struct {
	ID          uuid.UUID
	MeetingID   uuid.UUID
	Type        ObjectType
	Key         string
	SizeBytes   int64
	ContentType string
	ChunkIndex  *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChunkKey is the deterministic storage key for a chunk.
func ChunkKey(meetingID uuid.UUID, chunkIndex int) string {
	return fmt.Sprintf("meetings/%s/chunks/%d", meetingID, chunkIndex)
}

// FileKey is a fresh storage key for a whole-file recording. Random so two
// issued upload URLs never collide.
func FileKey(meetingID uuid.UUID) string {
	return fmt.Sprintf("meetings/%s/%s", meetingID, uuid.New())
}

func NewChunkObject(meetingID uuid.UUID, chunkIndex int, sizeBytes int64, contentType string) *StoredObject {
	idx := chunkIndex
	now := time.Now().UTC()
	return &StoredObject{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		Type:        ObjectTypeRecording,
		Key:         ChunkKey(meetingID, chunkIndex),
		SizeBytes:   sizeBytes,
		ContentType: contentType,
		ChunkIndex:  &idx,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func NewFileObject(meetingID uuid.UUID, key string, sizeBytes int64, contentType string) *StoredObject {
	now := time.Now().UTC()
	return &StoredObject{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		Type:        ObjectTypeRecording,
		Key:         key,
		SizeBytes:   sizeBytes,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
