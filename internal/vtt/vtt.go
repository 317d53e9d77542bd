// Package vtt builds and rewrites WebVTT caption tracks. The chunked
// transcription strategy shifts each chunk's cues by the end time of the
// chunks before it, so offsetting and end-time extraction must stay
// inverse-consistent.
package vtt

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const Header = "WEBVTT"

// Segment is one caption cue with times in seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

var timestampLine = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}\.\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}\.\d{3})`)

// FromSegments serializes segments into a WebVTT track. An empty list yields
// only the header.
func FromSegments(segments []Segment) string {
	if len(segments) == 0 {
		return Header + "\n\n"
	}

	lines := []string{Header, ""}
	for _, seg := range segments {
		lines = append(lines,
			formatTime(seg.Start)+" --> "+formatTime(seg.End),
			strings.TrimSpace(seg.Text),
			"",
		)
	}
	return strings.Join(lines, "\n")
}

// Offset returns the track with every cue shifted forward by offsetSeconds.
// Zero or negative offsets and empty input return the track unchanged.
func Offset(track string, offsetSeconds float64) string {
	if track == "" || offsetSeconds <= 0 {
		return track
	}

	lines := strings.Split(track, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		m := timestampLine.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		start := parseTime(m[1])
		end := parseTime(m[2])
		out = append(out, formatTime(start+offsetSeconds)+" --> "+formatTime(end+offsetSeconds))
	}
	return strings.Join(out, "\n")
}

// EndSeconds returns the end time of the last cue, or 0 for a track without
// cues. Used to compute the cumulative offset of the next chunk.
func EndSeconds(track string) float64 {
	var lastEnd float64
	for _, line := range strings.Split(track, "\n") {
		m := timestampLine.FindStringSubmatch(line)
		if m != nil {
			lastEnd = parseTime(m[2])
		}
	}
	return lastEnd
}

func formatTime(seconds float64) string {
	// Round to whole milliseconds first so a value like 59.9996 carries all
	// the way up to 00:01:00.000.
	total := int(math.Round(seconds * 1000))
	if total < 0 {
		total = 0
	}
	h := total / 3600000
	m := total % 3600000 / 60000
	s := total % 60000 / 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, total%1000)
}

func parseTime(s string) float64 {
	parts := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ':' || r == '.'
	})
	if len(parts) < 4 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	sec, _ := strconv.Atoi(parts[2])
	ms, _ := strconv.Atoi(parts[3])
	return float64(h)*3600 + float64(m)*60 + float64(sec) + float64(ms)/1000
}
