package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

func (r MessageRole) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

type PartType string

const (
	PartTypeText PartType = "text"
	PartTypeFile PartType = "file"
)

// MessagePart is one content fragment of a chat message. The Type tag says
// which of the remaining fields carry data; unknown tags are preserved as-is
// when round-tripping through storage.
type MessagePart struct {
	Type      PartType `json:"type"`
	Text      string   `json:"text,omitempty"`
	URL       string   `json:"url,omitempty"`
	MediaType string   `json:"media_type,omitempty"`
}

func TextPart(text string) MessagePart {
	return MessagePart{Type: PartTypeText, Text: text}
}

// ChatMessage is one entry of a meeting's chat history. The ID is supplied by
// the client (chat SDKs issue nanoid-style ids), so it is a string rather than
// a UUID; inserts are idempotent on it.
type ChatMessage struct {
	ID        string
	MeetingID uuid.UUID
	Role      MessageRole
	Parts     []MessagePart
	CreatedAt time.Time
}

// NewAssistantMessage builds a server-issued assistant message with a single
// text part, used for the generated meeting summary.
func NewAssistantMessage(meetingID uuid.UUID, text string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.NewString(),
		MeetingID: meetingID,
		Role:      RoleAssistant,
		Parts:     []MessagePart{TextPart(text)},
		CreatedAt: time.Now().UTC(),
	}
}

// Text joins the message's text parts; non-text parts are skipped.
func (m *ChatMessage) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
