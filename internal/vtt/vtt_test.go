package vtt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSegmentsEmpty(t *testing.T) {
	track := FromSegments(nil)

	assert.Equal(t, "WEBVTT\n\n", track)
	assert.NotContains(t, track, "-->")
}

func TestFromSegments(t *testing.T) {
	track := FromSegments([]Segment{
		{Start: 0, End: 2.5, Text: " hello there "},
		{Start: 2.5, End: 5, Text: "second cue"},
	})

	require.True(t, strings.HasPrefix(track, "WEBVTT\n"))
	assert.Contains(t, track, "00:00:00.000 --> 00:00:02.500")
	assert.Contains(t, track, "hello there")
	assert.Contains(t, track, "00:00:02.500 --> 00:00:05.000")
	assert.Contains(t, track, "second cue")
}

func TestOffsetNoOp(t *testing.T) {
	track := FromSegments([]Segment{{Start: 1, End: 2, Text: "cue"}})

	tests := []struct {
		name   string
		track  string
		offset float64
	}{
		{name: "zero offset", track: track, offset: 0},
		{name: "negative offset", track: track, offset: -5},
		{name: "empty track", track: "", offset: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.track, Offset(tt.track, tt.offset))
		})
	}
}

func TestOffsetShiftsCues(t *testing.T) {
	track := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nfirst\n\n00:00:03.500 --> 00:00:04.250\nsecond\n"

	shifted := Offset(track, 10)

	assert.Contains(t, shifted, "00:00:11.000 --> 00:00:12.000")
	assert.Contains(t, shifted, "00:00:13.500 --> 00:00:14.250")
	assert.Contains(t, shifted, "first")
	assert.Contains(t, shifted, "second")
}

func TestOffsetAcrossMinuteBoundary(t *testing.T) {
	track := "WEBVTT\n\n00:00:55.000 --> 00:00:58.000\ncue\n"

	shifted := Offset(track, 10)

	assert.Contains(t, shifted, "00:01:05.000 --> 00:01:08.000")
}

// Millisecond rounding must carry through seconds into minutes and hours.
func TestFormatTimeRolloverCarries(t *testing.T) {
	track := FromSegments([]Segment{
		{Start: 59.9996, End: 3599.9996, Text: "cue"},
	})

	assert.Contains(t, track, "00:01:00.000 --> 01:00:00.000")
	assert.NotContains(t, track, ":60.")
}

func TestEndSeconds(t *testing.T) {
	track := FromSegments([]Segment{
		{Start: 0, End: 2, Text: "a"},
		{Start: 2, End: 7.25, Text: "b"},
	})

	assert.InDelta(t, 7.25, EndSeconds(track), 0.001)
	assert.Zero(t, EndSeconds("WEBVTT\n\n"))
	assert.Zero(t, EndSeconds(""))
}

// Extracting the end time of an offset track must equal the original end time
// plus the offset.
func TestOffsetEndSecondsInverse(t *testing.T) {
	track := FromSegments([]Segment{
		{Start: 0, End: 9.5, Text: "a"},
		{Start: 9.5, End: 19, Text: "b"},
	})

	const offset = 42.0
	shifted := Offset(track, offset)

	assert.InDelta(t, EndSeconds(track)+offset, EndSeconds(shifted), 0.001)
}
