package recorder

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ChunkStore is the local persistent cache of recorded slices, keyed by
// (meeting id, chunk index). Slices land here before upload and are cleared
// only once the whole recording is durably uploaded.
type ChunkStore struct {
	db *sql.DB
}

const chunkSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	meeting_id   TEXT    NOT NULL,
	chunk_index  INTEGER NOT NULL,
	content_type TEXT    NOT NULL,
	data         BLOB    NOT NULL,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (meeting_id, chunk_index)
);`

func OpenChunkStore(path string) (*ChunkStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open chunk store: %w", err)
	}
	if _, err := db.Exec(chunkSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate chunk store: %w", err)
	}
	return &ChunkStore{db: db}, nil
}

func (s *ChunkStore) Close() error {
	return s.db.Close()
}

func (s *ChunkStore) Add(ctx context.Context, meetingID uuid.UUID, chunkIndex int, contentType string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chunks (meeting_id, chunk_index, content_type, data) VALUES (?, ?, ?, ?)`,
		meetingID.String(), chunkIndex, contentType, data,
	)
	if err != nil {
		return fmt.Errorf("store chunk %d: %w", chunkIndex, err)
	}
	return nil
}

// StoredChunk is one cached slice read back from the store.
type StoredChunk struct {
	ChunkIndex  int
	ContentType string
	Data        []byte
}

func (s *ChunkStore) List(ctx context.Context, meetingID uuid.UUID) ([]StoredChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_index, content_type, data FROM chunks WHERE meeting_id = ? ORDER BY chunk_index ASC`,
		meetingID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []StoredChunk
	for rows.Next() {
		var chunk StoredChunk
		if err := rows.Scan(&chunk.ChunkIndex, &chunk.ContentType, &chunk.Data); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// Clear drops the meeting's cached slices after a confirmed upload.
func (s *ChunkStore) Clear(ctx context.Context, meetingID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE meeting_id = ?`, meetingID.String())
	if err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	return nil
}
