package recorder

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// FFmpegSource captures the default microphone through ffmpeg, encoding to
// WebM/Opus on stdout, and slices the stream on a fixed interval.
type FFmpegSource struct {
	*ReaderSource
	cmd *exec.Cmd
}

// NewFFmpegSource probes for ffmpeg and prepares a capture from the given
// input device (e.g. "-f avfoundation -i :default" on macOS, "-f alsa -i
// default" on Linux). A missing binary or an unreadable device surfaces as
// ErrPermissionDenied so callers can show the same message as a denied
// microphone prompt.
func NewFFmpegSource(ctx context.Context, inputArgs []string, interval time.Duration) (*FFmpegSource, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found", ErrPermissionDenied)
	}

	args := append([]string{}, inputArgs...)
	args = append(args,
		"-ac", "1",
		"-c:a", "libopus",
		"-b:a", "128k",
		"-f", "webm",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	return &FFmpegSource{
		ReaderSource: NewReaderSource(stdout, interval, "audio/webm"),
		cmd:          cmd,
	}, nil
}

func (s *FFmpegSource) Stop() error {
	err := s.ReaderSource.Stop()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	return err
}
