package recorder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkStore_AddListClear(t *testing.T) {
	store, err := OpenChunkStore(filepath.Join(t.TempDir(), "chunks.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	meetingID := uuid.New()
	other := uuid.New()

	require.NoError(t, store.Add(ctx, meetingID, 1, "audio/webm", []byte("second")))
	require.NoError(t, store.Add(ctx, meetingID, 0, "audio/webm", []byte("first")))
	require.NoError(t, store.Add(ctx, other, 0, "audio/webm", []byte("elsewhere")))

	chunks, err := store.List(ctx, meetingID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, []byte("first"), chunks[0].Data)
	assert.Equal(t, 1, chunks[1].ChunkIndex)

	require.NoError(t, store.Clear(ctx, meetingID))
	chunks, err = store.List(ctx, meetingID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// Other meetings are untouched.
	chunks, err = store.List(ctx, other)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestChunkStore_DuplicateIndexRejected(t *testing.T) {
	store, err := OpenChunkStore(filepath.Join(t.TempDir(), "chunks.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	meetingID := uuid.New()

	require.NoError(t, store.Add(ctx, meetingID, 0, "audio/webm", []byte("first")))
	assert.Error(t, store.Add(ctx, meetingID, 0, "audio/webm", []byte("again")))
}
