// Package captions answers "what captions exist for this video, in Japanese
// and English" as a single synchronous operation per request.
package captions

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anatolykoptev/go_captions/internal/engine"
	"golang.org/x/sync/errgroup"
)

// languages is the fixed, ordered set looked up per video: ja then en.
var languages = [2]string{"ja", "en"}

// NotFoundMessage is the caller-visible message when neither language exists.
const NotFoundMessage = "No JA or EN transcripts available for this video"

// ErrNotFound is matched with errors.Is when neither language is available.
var ErrNotFound = errors.New("captions not found")

// NotFoundError carries the video and the human-readable message.
type NotFoundError struct {
	VideoID string
	Message string // empty = NotFoundMessage
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return NotFoundMessage
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Result is one language's captions. nil is the absence marker and encodes as JSON null.
type Result []engine.CaptionSegment

// LookupResponse always carries both keys.
type LookupResponse struct {
	JA Result `json:"ja"`
	EN Result `json:"en"`
}

// TranscriptFetcher is the external transcript provider.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID, lang string) ([]engine.CaptionSegment, error)
}

// Service looks up captions through a TranscriptFetcher.
type Service struct {
	fetcher TranscriptFetcher
}

// NewService returns a Service backed by f.
func NewService(f TranscriptFetcher) *Service {
	return &Service{fetcher: f}
}

// GetCaptions fetches ja and en independently and in parallel. A language that
// fails for any reason is absent; only both-absent is an error (*NotFoundError).
// The only other error is the caller's context being done.
func (s *Service) GetCaptions(ctx context.Context, videoID string) (LookupResponse, error) {
	engine.IncrCaptionRequests()

	var results [len(languages)]Result
	g, gctx := errgroup.WithContext(ctx)
	for i, lang := range languages {
		g.Go(func() error {
			res, err := s.fetchOne(gctx, videoID, lang)
			results[i] = res
			return err
		})
	}
	err := engine.TrackOperation(ctx, "get_captions", func(context.Context) error {
		return g.Wait()
	})
	if err != nil {
		return LookupResponse{}, err
	}

	resp := LookupResponse{JA: results[0], EN: results[1]}
	if resp.JA == nil && resp.EN == nil {
		engine.IncrCaptionNotFound()
		return LookupResponse{}, &NotFoundError{VideoID: videoID}
	}
	return resp, nil
}

// fetchOne maps every provider failure to the absence marker. Only failures
// outside the known absence kinds are logged. The returned error is non-nil
// only when ctx is done, which aborts the whole lookup.
func (s *Service) fetchOne(ctx context.Context, videoID, lang string) (Result, error) {
	segs, err := s.fetcher.FetchTranscript(ctx, videoID, lang)
	if err == nil {
		return Result(segs), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		slog.Debug("captions: fetch aborted",
			slog.String("video_id", videoID), slog.String("lang", lang), slog.Any("error", ctxErr))
		return nil, ctxErr
	}

	switch kind := engine.ClassifyFailure(err); kind {
	case engine.TranscriptsDisabled, engine.NoTranscriptFound, engine.VideoUnavailable:
		engine.IncrTranscriptAbsent()
		slog.Debug("captions: transcript absent",
			slog.String("video_id", videoID), slog.String("lang", lang), slog.String("kind", kind.String()))
	default:
		engine.IncrTranscriptErrors()
		slog.Warn("captions: error fetching transcript",
			slog.String("video_id", videoID), slog.String("lang", lang), slog.Any("error", err))
	}
	return nil, nil
}
