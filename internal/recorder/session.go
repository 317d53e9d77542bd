package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/umo-app/umo/lib/logger/sl"
)

// Result is what Stop reports once the final slice is flushed and every
// in-flight upload has resolved.
type Result struct {
	DurationSeconds int
	TotalChunks     int
	// FailedChunks lists indexes whose upload failed. The session never
	// retries them; the gap is the caller's to surface.
	FailedChunks []int
}

// durationReporter is implemented by uploaders that can also settle the
// meeting duration once recording ends. Client satisfies it.
type durationReporter interface {
	FinishRecording(ctx context.Context, meetingID uuid.UUID, durationSeconds, totalChunks int) error
}

// Session records one meeting. Every emitted slice is cached locally under
// (meeting id, chunk index) and, when an uploader is configured, uploaded
// concurrently. Index assignment is synchronous at emission time, so the
// registry order is stable no matter how uploads interleave.
type Session struct {
	source   ChunkSource
	store    *ChunkStore
	uploader Uploader
	log      *slog.Logger

	mu         sync.Mutex
	recording  bool
	meetingID  uuid.UUID
	chunkIndex int
	startedAt  time.Time
	failed     []int

	uploads sync.WaitGroup
	drained chan struct{}
}

// NewSession builds a session. uploader may be nil for local-only recording.
func NewSession(source ChunkSource, store *ChunkStore, uploader Uploader, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		source:   source,
		store:    store,
		uploader: uploader,
		log:      log,
	}
}

// Start acquires the capture device and begins slicing. A capture failure
// resets the session to not-recording and surfaces the error.
func (s *Session) Start(ctx context.Context, meetingID uuid.UUID) error {
	s.mu.Lock()
	if s.recording {
		s.mu.Unlock()
		return errors.New("session already recording")
	}
	s.recording = true
	s.meetingID = meetingID
	s.chunkIndex = 0
	s.failed = nil
	s.startedAt = time.Now()
	s.drained = make(chan struct{})
	s.mu.Unlock()

	slices, err := s.source.Start(ctx)
	if err != nil {
		s.mu.Lock()
		s.recording = false
		s.mu.Unlock()
		return fmt.Errorf("start capture: %w", err)
	}

	go s.consume(ctx, slices)
	return nil
}

func (s *Session) consume(ctx context.Context, slices <-chan Slice) {
	defer close(s.drained)

	for slice := range slices {
		if len(slice.Data) == 0 {
			continue
		}

		// The index is claimed before any asynchronous work so overlapping
		// upload latency cannot reorder assignment.
		s.mu.Lock()
		index := s.chunkIndex
		s.chunkIndex++
		meetingID := s.meetingID
		s.mu.Unlock()

		if err := s.store.Add(ctx, meetingID, index, slice.ContentType, slice.Data); err != nil {
			s.log.Error("failed to cache chunk",
				slog.Int("chunk_index", index), sl.Err(err))
		}

		if s.uploader == nil {
			continue
		}

		s.uploads.Add(1)
		go func(index int, slice Slice) {
			defer s.uploads.Done()
			if err := s.uploader.UploadChunk(ctx, meetingID, index, slice.ContentType, slice.Data); err != nil {
				// Losing one chunk is preferable to aborting the session.
				s.log.Error("chunk upload failed",
					slog.Int("chunk_index", index), sl.Err(err))
				s.mu.Lock()
				s.failed = append(s.failed, index)
				s.mu.Unlock()
			}
		}(index, slice)
	}
}

// Stop halts capture, waits for the final slice and every pending upload,
// and reports the totals. Local chunks are cleared only when the full set
// uploaded cleanly.
func (s *Session) Stop(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return nil, errors.New("session is not recording")
	}
	s.recording = false
	meetingID := s.meetingID
	startedAt := s.startedAt
	s.mu.Unlock()

	if err := s.source.Stop(); err != nil {
		return nil, fmt.Errorf("stop capture: %w", err)
	}
	<-s.drained
	s.uploads.Wait()

	s.mu.Lock()
	result := &Result{
		DurationSeconds: int(time.Since(startedAt).Seconds()),
		TotalChunks:     s.chunkIndex,
		FailedChunks:    append([]int(nil), s.failed...),
	}
	s.mu.Unlock()

	if s.uploader != nil && len(result.FailedChunks) == 0 && result.TotalChunks > 0 {
		if err := s.store.Clear(ctx, meetingID); err != nil {
			s.log.Warn("failed to clear local chunks", sl.Err(err))
		}
	}

	if fin, ok := s.uploader.(durationReporter); ok && result.TotalChunks > 0 {
		if err := fin.FinishRecording(ctx, meetingID, result.DurationSeconds, result.TotalChunks); err != nil {
			s.log.Warn("failed to report recording duration", sl.Err(err))
		}
	}

	s.log.Info("recording stopped",
		slog.String("meeting_id", meetingID.String()),
		slog.Int("duration_seconds", result.DurationSeconds),
		slog.Int("total_chunks", result.TotalChunks),
		slog.Int("failed_chunks", len(result.FailedChunks)),
	)
	return result, nil
}

// Recording reports whether the session is currently capturing.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Duration returns the elapsed recording time, zero when not recording.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return 0
	}
	return time.Since(s.startedAt)
}
