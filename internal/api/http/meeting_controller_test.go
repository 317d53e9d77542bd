package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patchDuration(t *testing.T, env *uploadTestEnv, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/api/meetings/%s/duration", env.meetingID), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// A sub-second recording legitimately reports duration 0 and must not be
// rejected as a missing field.
func TestFinishRecording_AcceptsZeroDuration(t *testing.T) {
	env := newUploadTestEnv(t)

	rec := patchDuration(t, env, `{"duration_seconds":0,"total_chunks":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	meeting, err := env.meetings.GetByID(context.Background(), env.meetingID)
	require.NoError(t, err)
	assert.Zero(t, meeting.DurationSeconds)
	require.NotNil(t, meeting.TotalChunks)
	assert.Equal(t, 1, *meeting.TotalChunks)
}

func TestFinishRecording_RejectsMissingFields(t *testing.T) {
	env := newUploadTestEnv(t)

	rec := patchDuration(t, env, `{"duration_seconds":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	meeting, err := env.meetings.GetByID(context.Background(), env.meetingID)
	require.NoError(t, err)
	assert.Nil(t, meeting.TotalChunks)
}
