package recorder

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// chunkFrame is one slice sent over the websocket ingest channel.
type chunkFrame struct {
	ChunkIndex  int    `json:"chunk_index"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

type chunkAck struct {
	ChunkIndex int    `json:"chunk_index"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// WSUploader streams chunk frames over one long-lived websocket instead of a
// request per chunk. Writes are serialized; the server acks each frame.
type WSUploader struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	baseURL string
}

func NewWSUploader(baseURL string) *WSUploader {
	return &WSUploader{baseURL: baseURL}
}

func (u *WSUploader) dial(ctx context.Context, meetingID uuid.UUID) (*websocket.Conn, error) {
	if u.conn != nil {
		return u.conn, nil
	}

	wsURL := strings.Replace(u.baseURL, "http", "ws", 1)
	endpoint, err := url.JoinPath(wsURL, "api", "meetings", meetingID.String(), "record", "ws")
	if err != nil {
		return nil, fmt.Errorf("build ws url: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial chunk ingest: %w", err)
	}
	u.conn = conn
	return conn, nil
}

func (u *WSUploader) UploadChunk(ctx context.Context, meetingID uuid.UUID, chunkIndex int, contentType string, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	conn, err := u.dial(ctx, meetingID)
	if err != nil {
		return err
	}

	frame := chunkFrame{
		ChunkIndex:  chunkIndex,
		ContentType: contentType,
		Data:        base64.StdEncoding.EncodeToString(data),
	}
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("send chunk %d: %w", chunkIndex, err)
	}

	var ack chunkAck
	if err := conn.ReadJSON(&ack); err != nil {
		return fmt.Errorf("ack chunk %d: %w", chunkIndex, err)
	}
	if !ack.OK {
		return fmt.Errorf("chunk %d rejected: %s", chunkIndex, ack.Error)
	}
	return nil
}

func (u *WSUploader) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}
