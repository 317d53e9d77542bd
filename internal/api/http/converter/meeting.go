package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/umo-app/umo/internal/domain"
	"github.com/umo-app/umo/internal/service"
)

type MeetingResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationSeconds int       `json:"duration_seconds"`
	TotalChunks     *int      `json:"total_chunks"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type MeetingDetailResponse struct {
	MeetingResponse
	RecordingKeys        []string   `json:"recording_keys"`
	TranscriptionID      *uuid.UUID `json:"transcription_id"`
	TranscriptionPending bool       `json:"transcription_pending"`
}

type TranscriptionResponse struct {
	ID        uuid.UUID `json:"id"`
	MeetingID uuid.UUID `json:"meeting_id"`
	Content   string    `json:"content"`
	VTT       string    `json:"vtt"`
	CreatedAt time.Time `json:"created_at"`
}

type ObjectResponse struct {
	ID          uuid.UUID `json:"id"`
	MeetingID   uuid.UUID `json:"meeting_id"`
	Key         string    `json:"key"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentType string    `json:"content_type"`
	ChunkIndex  *int      `json:"chunk_index"`
	CreatedAt   time.Time `json:"created_at"`
}

type MessageResponse struct {
	ID        string               `json:"id"`
	Role      domain.MessageRole   `json:"role"`
	Parts     []domain.MessagePart `json:"parts"`
	CreatedAt time.Time            `json:"created_at"`
}

func MeetingToApi(m *domain.Meeting) *MeetingResponse {
	return &MeetingResponse{
		ID:              m.ID,
		Title:           m.Title,
		DurationSeconds: m.DurationSeconds,
		TotalChunks:     m.TotalChunks,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func MeetingDetailToApi(d *service.MeetingDetail) *MeetingDetailResponse {
	keys := d.RecordingKeys
	if keys == nil {
		keys = []string{}
	}
	return &MeetingDetailResponse{
		MeetingResponse:      *MeetingToApi(d.Meeting),
		RecordingKeys:        keys,
		TranscriptionID:      d.TranscriptionID,
		TranscriptionPending: d.TranscriptionPending,
	}
}

func TranscriptionToApi(t *domain.Transcription) *TranscriptionResponse {
	return &TranscriptionResponse{
		ID:        t.ID,
		MeetingID: t.MeetingID,
		Content:   t.Content,
		VTT:       t.VTT,
		CreatedAt: t.CreatedAt,
	}
}

func ObjectToApi(o *domain.StoredObject) *ObjectResponse {
	return &ObjectResponse{
		ID:          o.ID,
		MeetingID:   o.MeetingID,
		Key:         o.Key,
		SizeBytes:   o.SizeBytes,
		ContentType: o.ContentType,
		ChunkIndex:  o.ChunkIndex,
		CreatedAt:   o.CreatedAt,
	}
}

func MessageToApi(m *domain.ChatMessage) *MessageResponse {
	parts := m.Parts
	if parts == nil {
		parts = []domain.MessagePart{}
	}
	return &MessageResponse{
		ID:        m.ID,
		Role:      m.Role,
		Parts:     parts,
		CreatedAt: m.CreatedAt,
	}
}

func MessagesToApi(messages []*domain.ChatMessage) []*MessageResponse {
	out := make([]*MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageToApi(m))
	}
	return out
}
