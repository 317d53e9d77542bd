package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/umo-app/umo/internal/domain"
	"github.com/umo-app/umo/internal/repository"
)

type UserService struct {
	users repository.UserRepository
	log   *slog.Logger
}

func NewUserService(users repository.UserRepository, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{users: users, log: log}
}

// SyncUser applies a created/updated event from the identity provider.
func (s *UserService) SyncUser(ctx context.Context, externalID, fullName, email, avatarURL string) error {
	const op = "service.user.sync"
	if externalID == "" {
		return errors.New("external id is required")
	}
	if fullName == "" {
		return errors.New("full name is required")
	}
	if email == "" {
		return errors.New("email is required")
	}

	user := domain.NewUser(externalID, fullName, email, avatarURL)
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Upsert(ctx, user); err != nil {
		return err
	}

	s.log.Info("user synced",
		slog.String("op", op),
		slog.String("external_id", externalID),
	)
	return nil
}

func (s *UserService) GetUser(ctx context.Context, externalID string) (*domain.User, error) {
	if externalID == "" {
		return nil, errors.New("external id is required")
	}
	return s.users.GetByExternalID(ctx, externalID)
}

func (s *UserService) RemoveUser(ctx context.Context, externalID string) error {
	if externalID == "" {
		return errors.New("external id is required")
	}

	if err := s.users.DeleteByExternalID(ctx, externalID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	s.log.Info("user removed", slog.String("external_id", externalID))
	return nil
}
