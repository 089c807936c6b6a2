package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMetrics(t *testing.T) {
	before := GetMetrics()
	IncrCaptionRequests()
	IncrTranscriptErrors()
	IncrTranscriptErrors()
	after := GetMetrics()

	assert.Equal(t, before["caption_requests"]+1, after["caption_requests"])
	assert.Equal(t, before["transcript_errors"]+2, after["transcript_errors"])

	lines := strings.Split(strings.TrimSpace(FormatMetrics()), "\n")
	require.Len(t, lines, len(metricKeys))
	for i, k := range metricKeys {
		assert.True(t, strings.HasPrefix(lines[i], k+" "), "line %d = %q, want key %q", i, lines[i], k)
	}
}

func TestTrackOperation(t *testing.T) {
	want := errors.New("boom")
	err := TrackOperation(context.Background(), "test", func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}
