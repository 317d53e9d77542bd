package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/umo-app/umo/internal/domain"
	"github.com/umo-app/umo/internal/repository/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresMeetingRepository struct {
	db *gorm.DB
}

func NewPostgresMeetingRepository(db *gorm.DB) *PostgresMeetingRepository {
	return &PostgresMeetingRepository{db: db}
}

func (r *PostgresMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if meeting == nil {
		return errors.New("meeting is nil")
	}

	return r.db.WithContext(ctx).Create(toModelMeeting(meeting)).Error
}

func (r *PostgresMeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var meeting model.Meeting
	err := r.db.WithContext(ctx).First(&meeting, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}

	return toDomainMeeting(&meeting), nil
}

func (r *PostgresMeetingRepository) List(ctx context.Context) ([]*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var meetings []model.Meeting
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&meetings).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Meeting, 0, len(meetings))
	for i := range meetings {
		result = append(result, toDomainMeeting(&meetings[i]))
	}
	return result, nil
}

func (r *PostgresMeetingRepository) UpdateRecording(ctx context.Context, id uuid.UUID, durationSeconds, totalChunks int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.Meeting{}).Where("id = ?", id).Updates(map[string]any{
		"duration_seconds": durationSeconds,
		"total_chunks":     totalChunks,
		"updated_at":       time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

func (r *PostgresMeetingRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.Meeting{}).Where("id = ?", id).Updates(map[string]any{
		"title":      title,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

func (r *PostgresMeetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Meeting{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

type PostgresObjectRepository struct {
	db *gorm.DB
}

func NewPostgresObjectRepository(db *gorm.DB) *PostgresObjectRepository {
	return &PostgresObjectRepository{db: db}
}

func (r *PostgresObjectRepository) Create(ctx context.Context, object *domain.StoredObject) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if object == nil {
		return errors.New("object is nil")
	}

	return r.db.WithContext(ctx).Create(toModelObject(object)).Error
}

func (r *PostgresObjectRepository) ListChunks(ctx context.Context, meetingID uuid.UUID) ([]*domain.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var objects []model.Object
	err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND type = ? AND chunk_index IS NOT NULL", meetingID, string(domain.ObjectTypeRecording)).
		Order("chunk_index ASC").
		Find(&objects).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.StoredObject, 0, len(objects))
	for i := range objects {
		result = append(result, toDomainObject(&objects[i]))
	}
	return result, nil
}

func (r *PostgresObjectRepository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*domain.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var objects []model.Object
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("chunk_index ASC").
		Find(&objects).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.StoredObject, 0, len(objects))
	for i := range objects {
		result = append(result, toDomainObject(&objects[i]))
	}
	return result, nil
}

type PostgresTranscriptionRepository struct {
	db *gorm.DB
}

func NewPostgresTranscriptionRepository(db *gorm.DB) *PostgresTranscriptionRepository {
	return &PostgresTranscriptionRepository{db: db}
}

// CreateFinal relies on the partial unique index on (meeting_id) WHERE
// chunk_index IS NULL, so concurrent pipeline runs cannot both insert.
func (r *PostgresTranscriptionRepository) CreateFinal(ctx context.Context, transcription *domain.Transcription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if transcription == nil {
		return errors.New("transcription is nil")
	}
	if transcription.ChunkIndex != nil {
		return errors.New("final transcription must not carry a chunk index")
	}

	if err := r.db.WithContext(ctx).Create(toModelTranscription(transcription)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrFinalTranscriptionExists
		}
		return err
	}
	return nil
}

func (r *PostgresTranscriptionRepository) CreateChunk(ctx context.Context, transcription *domain.Transcription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if transcription == nil {
		return errors.New("transcription is nil")
	}
	if transcription.ChunkIndex == nil {
		return errors.New("chunk transcription requires a chunk index")
	}

	// A retried chunked run re-transcribes chunks whose partial row already
	// landed. The unique index on (meeting_id, chunk_index) rejects the
	// duplicate and the insert is skipped.
	if err := r.db.WithContext(ctx).Create(toModelTranscription(transcription)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	return nil
}

func (r *PostgresTranscriptionRepository) GetFinal(ctx context.Context, meetingID uuid.UUID) (*domain.Transcription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var transcription model.Transcription
	err := r.db.WithContext(ctx).
		First(&transcription, "meeting_id = ? AND chunk_index IS NULL", meetingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTranscriptionNotFound
		}
		return nil, err
	}

	return toDomainTranscription(&transcription), nil
}

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewPostgresMessageRepository(db *gorm.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) CreateIfAbsent(ctx context.Context, message *domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if message == nil {
		return errors.New("message is nil")
	}

	messageModel, err := toModelMessage(message)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(messageModel).Error
}

func (r *PostgresMessageRepository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var messages []model.MeetingMessage
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.ChatMessage, 0, len(messages))
	for i := range messages {
		message, err := toDomainMessage(&messages[i])
		if err != nil {
			return nil, err
		}
		result = append(result, message)
	}
	return result, nil
}

func (r *PostgresMessageRepository) HasMessages(ctx context.Context, meetingID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&model.MeetingMessage{}).
		Where("meeting_id = ?", meetingID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	userModel := toModelUser(user)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"full_name", "email", "avatar_url", "updated_at",
			}),
		}).
		Create(userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserEmailExists
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "external_id = ?", externalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) DeleteByExternalID(ctx context.Context, externalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.User{}, "external_id = ?", externalID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func toModelMeeting(meeting *domain.Meeting) *model.Meeting {
	return &model.Meeting{
		ID:              meeting.ID,
		Title:           meeting.Title,
		DurationSeconds: meeting.DurationSeconds,
		TotalChunks:     meeting.TotalChunks,
		CreatedAt:       meeting.CreatedAt.UTC(),
		UpdatedAt:       meeting.UpdatedAt.UTC(),
	}
}

func toDomainMeeting(meeting *model.Meeting) *domain.Meeting {
	return &domain.Meeting{
		ID:              meeting.ID,
		Title:           meeting.Title,
		DurationSeconds: meeting.DurationSeconds,
		TotalChunks:     meeting.TotalChunks,
		CreatedAt:       meeting.CreatedAt.UTC(),
		UpdatedAt:       meeting.UpdatedAt.UTC(),
	}
}

func toModelObject(object *domain.StoredObject) *model.Object {
	return &model.Object{
		ID:          object.ID,
		MeetingID:   object.MeetingID,
		Type:        string(object.Type),
		Key:         object.Key,
		SizeBytes:   object.SizeBytes,
		ContentType: object.ContentType,
		ChunkIndex:  object.ChunkIndex,
		CreatedAt:   object.CreatedAt.UTC(),
		UpdatedAt:   object.UpdatedAt.UTC(),
	}
}

func toDomainObject(object *model.Object) *domain.StoredObject {
	return &domain.StoredObject{
		ID:          object.ID,
		MeetingID:   object.MeetingID,
		Type:        domain.ObjectType(object.Type),
		Key:         object.Key,
		SizeBytes:   object.SizeBytes,
		ContentType: object.ContentType,
		ChunkIndex:  object.ChunkIndex,
		CreatedAt:   object.CreatedAt.UTC(),
		UpdatedAt:   object.UpdatedAt.UTC(),
	}
}

func toModelTranscription(transcription *domain.Transcription) *model.Transcription {
	var track *string
	if transcription.VTT != "" {
		v := transcription.VTT
		track = &v
	}
	return &model.Transcription{
		ID:              transcription.ID,
		MeetingID:       transcription.MeetingID,
		Content:         transcription.Content,
		VTT:             track,
		ChunkIndex:      transcription.ChunkIndex,
		ChunkDurationMs: transcription.ChunkDurationMs,
		CreatedAt:       transcription.CreatedAt.UTC(),
		UpdatedAt:       transcription.UpdatedAt.UTC(),
	}
}

func toDomainTranscription(transcription *model.Transcription) *domain.Transcription {
	track := ""
	if transcription.VTT != nil {
		track = *transcription.VTT
	}
	return &domain.Transcription{
		ID:              transcription.ID,
		MeetingID:       transcription.MeetingID,
		Content:         transcription.Content,
		VTT:             track,
		ChunkIndex:      transcription.ChunkIndex,
		ChunkDurationMs: transcription.ChunkDurationMs,
		CreatedAt:       transcription.CreatedAt.UTC(),
		UpdatedAt:       transcription.UpdatedAt.UTC(),
	}
}

func toModelMessage(message *domain.ChatMessage) (*model.MeetingMessage, error) {
	parts, err := json.Marshal(message.Parts)
	if err != nil {
		return nil, fmt.Errorf("marshal message parts: %w", err)
	}
	return &model.MeetingMessage{
		ID:        message.ID,
		MeetingID: message.MeetingID,
		Role:      string(message.Role),
		Parts:     parts,
		CreatedAt: message.CreatedAt.UTC(),
	}, nil
}

func toDomainMessage(message *model.MeetingMessage) (*domain.ChatMessage, error) {
	var parts []domain.MessagePart
	if len(message.Parts) > 0 {
		if err := json.Unmarshal(message.Parts, &parts); err != nil {
			return nil, fmt.Errorf("unmarshal message parts: %w", err)
		}
	}
	return &domain.ChatMessage{
		ID:        message.ID,
		MeetingID: message.MeetingID,
		Role:      domain.MessageRole(message.Role),
		Parts:     parts,
		CreatedAt: message.CreatedAt.UTC(),
	}, nil
}

func toModelUser(user *domain.User) *model.User {
	var avatarURL *string
	if user.AvatarURL != "" {
		a := user.AvatarURL
		avatarURL = &a
	}
	return &model.User{
		ID:         user.ID,
		ExternalID: user.ExternalID,
		FullName:   user.FullName,
		Email:      user.Email,
		AvatarURL:  avatarURL,
		CreatedAt:  user.CreatedAt.UTC(),
		UpdatedAt:  user.UpdatedAt.UTC(),
	}
}

func toDomainUser(user *model.User) *domain.User {
	avatarURL := ""
	if user.AvatarURL != nil {
		avatarURL = *user.AvatarURL
	}
	return &domain.User{
		ID:         user.ID,
		ExternalID: user.ExternalID,
		FullName:   user.FullName,
		Email:      user.Email,
		AvatarURL:  avatarURL,
		CreatedAt:  user.CreatedAt.UTC(),
		UpdatedAt:  user.UpdatedAt.UTC(),
	}
}
