package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/umo-app/umo/internal/domain"
)

type InMemoryMeetingRepository struct {
	mu       sync.RWMutex
	meetings map[uuid.UUID]*domain.Meeting
}

func NewInMemoryMeetingRepository() *InMemoryMeetingRepository {
	return &InMemoryMeetingRepository{meetings: make(map[uuid.UUID]*domain.Meeting)}
}

func (r *InMemoryMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *meeting
	r.meetings[meeting.ID] = &copied
	return nil
}

func (r *InMemoryMeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	meeting, ok := r.meetings[id]
	if !ok {
		return nil, ErrMeetingNotFound
	}

	copied := *meeting
	return &copied, nil
}

func (r *InMemoryMeetingRepository) List(ctx context.Context) ([]*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Meeting, 0, len(r.meetings))
	for _, meeting := range r.meetings {
		copied := *meeting
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *InMemoryMeetingRepository) UpdateRecording(ctx context.Context, id uuid.UUID, durationSeconds, totalChunks int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	meeting, ok := r.meetings[id]
	if !ok {
		return ErrMeetingNotFound
	}

	chunks := totalChunks
	meeting.DurationSeconds = durationSeconds
	meeting.TotalChunks = &chunks
	return nil
}

func (r *InMemoryMeetingRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	meeting, ok := r.meetings[id]
	if !ok {
		return ErrMeetingNotFound
	}

	meeting.Title = title
	return nil
}

func (r *InMemoryMeetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meetings[id]; !ok {
		return ErrMeetingNotFound
	}

	delete(r.meetings, id)
	return nil
}

type InMemoryObjectRepository struct {
	mu      sync.RWMutex
	objects map[uuid.UUID]*domain.StoredObject
}

func NewInMemoryObjectRepository() *InMemoryObjectRepository {
	return &InMemoryObjectRepository{objects: make(map[uuid.UUID]*domain.StoredObject)}
}

func (r *InMemoryObjectRepository) Create(ctx context.Context, object *domain.StoredObject) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *object
	r.objects[object.ID] = &copied
	return nil
}

func (r *InMemoryObjectRepository) ListChunks(ctx context.Context, meetingID uuid.UUID) ([]*domain.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.StoredObject, 0)
	for _, object := range r.objects {
		if object.MeetingID != meetingID || object.Type != domain.ObjectTypeRecording || object.ChunkIndex == nil {
			continue
		}
		copied := *object
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return *result[i].ChunkIndex < *result[j].ChunkIndex
	})
	return result, nil
}

func (r *InMemoryObjectRepository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*domain.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.StoredObject, 0)
	for _, object := range r.objects {
		if object.MeetingID != meetingID {
			continue
		}
		copied := *object
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		left, right := result[i].ChunkIndex, result[j].ChunkIndex
		if left == nil || right == nil {
			return right == nil && left != nil
		}
		return *left < *right
	})
	return result, nil
}

// Count reports the number of stored rows; used by handler tests to assert
// that rejected requests left the registry untouched.
func (r *InMemoryObjectRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

type InMemoryTranscriptionRepository struct {
	mu             sync.Mutex
	transcriptions []*domain.Transcription
}

func NewInMemoryTranscriptionRepository() *InMemoryTranscriptionRepository {
	return &InMemoryTranscriptionRepository{}
}

func (r *InMemoryTranscriptionRepository) CreateFinal(ctx context.Context, transcription *domain.Transcription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if transcription.ChunkIndex != nil {
		return errors.New("final transcription must not carry a chunk index")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.transcriptions {
		if existing.MeetingID == transcription.MeetingID && existing.ChunkIndex == nil {
			return ErrFinalTranscriptionExists
		}
	}

	copied := *transcription
	r.transcriptions = append(r.transcriptions, &copied)
	return nil
}

func (r *InMemoryTranscriptionRepository) CreateChunk(ctx context.Context, transcription *domain.Transcription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if transcription.ChunkIndex == nil {
		return errors.New("chunk transcription requires a chunk index")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.transcriptions {
		if existing.MeetingID == transcription.MeetingID &&
			existing.ChunkIndex != nil && *existing.ChunkIndex == *transcription.ChunkIndex {
			return nil
		}
	}

	copied := *transcription
	r.transcriptions = append(r.transcriptions, &copied)
	return nil
}

func (r *InMemoryTranscriptionRepository) GetFinal(ctx context.Context, meetingID uuid.UUID) (*domain.Transcription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, transcription := range r.transcriptions {
		if transcription.MeetingID == meetingID && transcription.ChunkIndex == nil {
			copied := *transcription
			return &copied, nil
		}
	}
	return nil, ErrTranscriptionNotFound
}

// FinalCount reports how many final rows exist for the meeting; tests use it
// to prove the pipeline never duplicates.
func (r *InMemoryTranscriptionRepository) FinalCount(meetingID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, transcription := range r.transcriptions {
		if transcription.MeetingID == meetingID && transcription.ChunkIndex == nil {
			count++
		}
	}
	return count
}

// ChunkCount reports how many partial rows exist for the meeting.
func (r *InMemoryTranscriptionRepository) ChunkCount(meetingID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, transcription := range r.transcriptions {
		if transcription.MeetingID == meetingID && transcription.ChunkIndex != nil {
			count++
		}
	}
	return count
}

type InMemoryMessageRepository struct {
	mu       sync.Mutex
	messages []*domain.ChatMessage
}

func NewInMemoryMessageRepository() *InMemoryMessageRepository {
	return &InMemoryMessageRepository{}
}

func (r *InMemoryMessageRepository) CreateIfAbsent(ctx context.Context, message *domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.messages {
		if existing.ID == message.ID {
			return nil
		}
	}

	copied := *message
	r.messages = append(r.messages, &copied)
	return nil
}

func (r *InMemoryMessageRepository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*domain.ChatMessage, 0)
	for _, message := range r.messages {
		if message.MeetingID != meetingID {
			continue
		}
		copied := *message
		result = append(result, &copied)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *InMemoryMessageRepository) HasMessages(ctx context.Context, meetingID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, message := range r.messages {
		if message.MeetingID == meetingID {
			return true, nil
		}
	}
	return false, nil
}

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[string]*domain.User)}
}

func (r *InMemoryUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[user.ExternalID]; ok {
		existing.FullName = user.FullName
		existing.Email = user.Email
		existing.AvatarURL = user.AvatarURL
		existing.UpdatedAt = user.UpdatedAt
		return nil
	}

	copied := *user
	r.users[user.ExternalID] = &copied
	return nil
}

func (r *InMemoryUserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[externalID]
	if !ok {
		return nil, ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}

func (r *InMemoryUserRepository) DeleteByExternalID(ctx context.Context, externalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[externalID]; !ok {
		return ErrUserNotFound
	}

	delete(r.users, externalID)
	return nil
}

// Count reports the number of synced users; webhook tests compare it before
// and after rejected deliveries.
func (r *InMemoryUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
