package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	CaptionRequests   atomic.Int64
	CaptionNotFound   atomic.Int64
	TranscriptFetches atomic.Int64
	TranscriptAbsent  atomic.Int64
	TranscriptErrors  atomic.Int64
	PlayerFallbacks   atomic.Int64
}

// metricKeys fixes the output order of FormatMetrics.
var metricKeys = []string{
	"caption_requests", "caption_not_found",
	"transcript_fetches", "transcript_absent", "transcript_errors",
	"player_fallbacks",
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"caption_requests":   metrics.CaptionRequests.Load(),
		"caption_not_found":  metrics.CaptionNotFound.Load(),
		"transcript_fetches": metrics.TranscriptFetches.Load(),
		"transcript_absent":  metrics.TranscriptAbsent.Load(),
		"transcript_errors":  metrics.TranscriptErrors.Load(),
		"player_fallbacks":   metrics.PlayerFallbacks.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for captions/ and sources/ sub-packages.
func IncrCaptionRequests()   { metrics.CaptionRequests.Add(1) }
func IncrCaptionNotFound()   { metrics.CaptionNotFound.Add(1) }
func IncrTranscriptFetches() { metrics.TranscriptFetches.Add(1) }
func IncrTranscriptAbsent()  { metrics.TranscriptAbsent.Add(1) }
func IncrTranscriptErrors()  { metrics.TranscriptErrors.Add(1) }
func IncrPlayerFallbacks()   { metrics.PlayerFallbacks.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
