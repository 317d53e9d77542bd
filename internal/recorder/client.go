package recorder

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Uploader transfers one chunk to the server. Implementations exist for
// plain HTTP multipart and for a websocket ingest channel.
type Uploader interface {
	UploadChunk(ctx context.Context, meetingID uuid.UUID, chunkIndex int, contentType string, data []byte) error
	Close() error
}

// Client is the recorder's view of the umo server API.
type Client struct {
	http    *resty.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{
		http:    resty.New().SetBaseURL(baseURL),
		baseURL: baseURL,
	}
}

func (c *Client) CreateMeeting(ctx context.Context, title string) (uuid.UUID, error) {
	var out struct {
		Meeting struct {
			ID uuid.UUID `json:"id"`
		} `json:"meeting"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"title": title}).
		SetResult(&out).
		Post("/api/meetings")
	if err != nil {
		return uuid.Nil, fmt.Errorf("create meeting: %w", err)
	}
	if resp.IsError() {
		return uuid.Nil, fmt.Errorf("create meeting: server returned %s", resp.Status())
	}

	return out.Meeting.ID, nil
}

func (c *Client) UploadChunk(ctx context.Context, meetingID uuid.UUID, chunkIndex int, contentType string, data []byte) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"chunk_index": strconv.Itoa(chunkIndex),
		}).
		SetMultipartField("chunk", fmt.Sprintf("chunk-%d", chunkIndex), contentType, bytes.NewReader(data)).
		Post("/api/meetings/" + meetingID.String() + "/chunks")
	if err != nil {
		return fmt.Errorf("upload chunk %d: %w", chunkIndex, err)
	}
	if resp.IsError() {
		return fmt.Errorf("upload chunk %d: server returned %s", chunkIndex, resp.Status())
	}
	return nil
}

// FinishRecording reports the final duration and chunk count once Stop has
// drained every in-flight upload.
func (c *Client) FinishRecording(ctx context.Context, meetingID uuid.UUID, durationSeconds, totalChunks int) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]int{
			"duration_seconds": durationSeconds,
			"total_chunks":     totalChunks,
		}).
		Patch("/api/meetings/" + meetingID.String() + "/duration")
	if err != nil {
		return fmt.Errorf("finish recording: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("finish recording: server returned %s", resp.Status())
	}
	return nil
}

// RunTranscription asks the server to start the transcription pipeline.
func (c *Client) RunTranscription(ctx context.Context, meetingID uuid.UUID) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Post("/api/meetings/" + meetingID.String() + "/transcription")
	if err != nil {
		return fmt.Errorf("run transcription: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("run transcription: server returned %s", resp.Status())
	}
	return nil
}

func (c *Client) Close() error {
	return nil
}
