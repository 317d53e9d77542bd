package domain

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors an identity-provider account. Rows are kept in sync one-way by
// the provider's webhook events and are never created by the application
// itself.
type User struct {
	ID         uuid.UUID
	ExternalID string
	FullName   string
	Email      string
	AvatarURL  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewUser(externalID, fullName, email, avatarURL string) *User {
	now := time.Now().UTC()
	return &User{
		ID:         uuid.New(),
		ExternalID: externalID,
		FullName:   fullName,
		Email:      email,
		AvatarURL:  avatarURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
