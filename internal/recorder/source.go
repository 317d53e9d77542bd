// Package recorder drives a client-side recording session: it slices a
// captured audio stream into fixed-duration chunks, caches them locally and
// uploads them to the server while recording continues.
package recorder

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrPermissionDenied reports that the capture device could not be acquired.
var ErrPermissionDenied = errors.New("audio capture permission denied")

// Slice is one fixed-duration piece of the recording. Only the first slice
// of a session carries the container header; the rest are raw continuation
// fragments, so slices only decode when concatenated in emission order.
type Slice struct {
	Data        []byte
	ContentType string
}

// ChunkSource produces the recording as a sequence of slices. Start begins
// capture and returns the slice channel; Stop flushes the final partial
// slice, closes the channel and releases the device.
type ChunkSource interface {
	Start(ctx context.Context) (<-chan Slice, error)
	Stop() error
}

// ReaderSource slices an encoded audio stream read from r. It emits whatever
// bytes accumulated during each interval as one slice, mirroring a media
// recorder's timeslice behavior.
type ReaderSource struct {
	r           io.Reader
	interval    time.Duration
	contentType string

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
	running bool
}

func NewReaderSource(r io.Reader, interval time.Duration, contentType string) *ReaderSource {
	if contentType == "" {
		contentType = "audio/webm"
	}
	return &ReaderSource{
		r:           r,
		interval:    interval,
		contentType: contentType,
	}
}

func (s *ReaderSource) Start(ctx context.Context) (<-chan Slice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, errors.New("source already started")
	}
	s.running = true
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})

	out := make(chan Slice)
	reads := make(chan []byte)

	// Reader goroutine: moves bytes from the stream into the slicer. It
	// exits when the stream ends or the source stops.
	go func() {
		defer close(reads)
		buf := make([]byte, 32*1024)
		for {
			n, err := s.r.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case reads <- data:
				case <-s.stop:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	go func() {
		defer close(s.stopped)
		defer close(out)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		var pending []byte
		flush := func() {
			if len(pending) == 0 {
				return
			}
			out <- Slice{Data: pending, ContentType: s.contentType}
			pending = nil
		}

		for {
			select {
			case data, ok := <-reads:
				if !ok {
					flush()
					return
				}
				pending = append(pending, data...)
			case <-ticker.C:
				flush()
			case <-s.stop:
				// Drain whatever the reader already handed over, then
				// flush the final partial slice.
				for {
					select {
					case data, ok := <-reads:
						if !ok {
							flush()
							return
						}
						pending = append(pending, data...)
					default:
						flush()
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *ReaderSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	close(s.stop)
	<-s.stopped
	if closer, ok := s.r.(io.Closer); ok {
		closer.Close()
	}
	return nil
}
