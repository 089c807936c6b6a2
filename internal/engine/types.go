package engine

import (
	"errors"
	"fmt"
)

// --- Caption types ---

// CaptionSegment is one timed transcript unit. Start and Duration are in seconds.
type CaptionSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// --- Provider failures ---

// FailureKind classifies why a transcript could not be fetched.
type FailureKind int

const (
	// OtherFailure covers transport, decoding and any unrecognised upstream state.
	OtherFailure FailureKind = iota
	TranscriptsDisabled
	NoTranscriptFound
	VideoUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case TranscriptsDisabled:
		return "transcripts_disabled"
	case NoTranscriptFound:
		return "no_transcript_found"
	case VideoUnavailable:
		return "video_unavailable"
	default:
		return "other"
	}
}

// Expected reports whether the failure is a normal "no captions here" outcome
// rather than a broken lookup.
func (k FailureKind) Expected() bool {
	switch k {
	case TranscriptsDisabled, NoTranscriptFound, VideoUnavailable:
		return true
	}
	return false
}

// TranscriptError is returned by transcript providers.
type TranscriptError struct {
	Kind    FailureKind
	VideoID string
	Lang    string
	Err     error
}

func (e *TranscriptError) Error() string {
	msg := fmt.Sprintf("transcript %s [%s]: %s", e.VideoID, e.Lang, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TranscriptError) Unwrap() error { return e.Err }

// ClassifyFailure returns the FailureKind carried by err.
// Errors that are not a *TranscriptError are OtherFailure.
func ClassifyFailure(err error) FailureKind {
	var te *TranscriptError
	if errors.As(err, &te) {
		return te.Kind
	}
	return OtherFailure
}
