package captions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/anatolykoptev/go_captions/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher answers per language; missing languages fail with NoTranscriptFound.
type stubFetcher struct {
	mu    sync.Mutex
	segs  map[string][]engine.CaptionSegment
	errs  map[string]error
	calls map[string]int
}

func (f *stubFetcher) FetchTranscript(_ context.Context, videoID, lang string) ([]engine.CaptionSegment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[lang]++
	if err, ok := f.errs[lang]; ok {
		return nil, err
	}
	if segs, ok := f.segs[lang]; ok {
		return segs, nil
	}
	return nil, absent(engine.NoTranscriptFound, videoID, lang)
}

func absent(kind engine.FailureKind, videoID, lang string) error {
	return &engine.TranscriptError{Kind: kind, VideoID: videoID, Lang: lang}
}

// captureLogs routes the default logger into a buffer for the test's duration.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

var (
	jaSegs = []engine.CaptionSegment{
		{Text: "こんにちは", Start: 0, Duration: 1.5},
		{Text: "元気ですか", Start: 1.5, Duration: 2},
	}
	enSegs = []engine.CaptionSegment{{Text: "Hello", Start: 0, Duration: 1.5}}
)

func TestGetCaptionsJapaneseOnly(t *testing.T) {
	f := &stubFetcher{segs: map[string][]engine.CaptionSegment{"ja": jaSegs}}

	resp, err := NewService(f).GetCaptions(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, Result(jaSegs), resp.JA, "provider order preserved")
	assert.Nil(t, resp.EN)
	assert.Equal(t, 1, f.calls["ja"])
	assert.Equal(t, 1, f.calls["en"])
}

func TestGetCaptionsScenarioABC123(t *testing.T) {
	f := &stubFetcher{
		segs: map[string][]engine.CaptionSegment{"ja": {{Text: "こんにちは", Start: 0.0, Duration: 1.5}}},
		errs: map[string]error{"en": absent(engine.TranscriptsDisabled, "abc123", "en")},
	}

	resp, err := NewService(f).GetCaptions(context.Background(), "abc123")
	require.NoError(t, err)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ja":[{"text":"こんにちは","start":0.0,"duration":1.5}],"en":null}`, string(body))
}

func TestGetCaptionsBothAbsent(t *testing.T) {
	kinds := []engine.FailureKind{engine.TranscriptsDisabled, engine.NoTranscriptFound, engine.VideoUnavailable}
	for _, ja := range kinds {
		for _, en := range kinds {
			t.Run(ja.String()+"/"+en.String(), func(t *testing.T) {
				logs := captureLogs(t)
				f := &stubFetcher{errs: map[string]error{
					"ja": absent(ja, "zzz999", "ja"),
					"en": absent(en, "zzz999", "en"),
				}}

				_, err := NewService(f).GetCaptions(context.Background(), "zzz999")
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrNotFound)
				assert.Equal(t, NotFoundMessage, err.Error())

				var nf *NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, "zzz999", nf.VideoID)
				assert.Empty(t, logs.String(), "expected absences must not be logged")
			})
		}
	}
}

func TestGetCaptionsUnexpectedFailureLogged(t *testing.T) {
	logs := captureLogs(t)
	f := &stubFetcher{
		segs: map[string][]engine.CaptionSegment{"en": enSegs},
		errs: map[string]error{"ja": errors.New("connection reset by peer")},
	}

	resp, err := NewService(f).GetCaptions(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Nil(t, resp.JA)
	assert.Equal(t, Result(enSegs), resp.EN)

	out := logs.String()
	assert.Contains(t, out, `"video_id":"abc123"`)
	assert.Contains(t, out, `"lang":"ja"`)
	assert.Contains(t, out, "connection reset by peer")
	assert.NotContains(t, out, `"lang":"en"`)
}

func TestGetCaptionsUnexpectedBothFails(t *testing.T) {
	captureLogs(t)
	f := &stubFetcher{errs: map[string]error{
		"ja": absent(engine.OtherFailure, "v", "ja"),
		"en": errors.New("decode player: unexpected EOF"),
	}}

	_, err := NewService(f).GetCaptions(context.Background(), "v")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetCaptionsAggregationIndependence(t *testing.T) {
	jaOutcomes := map[string]*stubFetcher{
		"success":    {segs: map[string][]engine.CaptionSegment{"ja": jaSegs, "en": enSegs}},
		"expected":   {segs: map[string][]engine.CaptionSegment{"en": enSegs}, errs: map[string]error{"ja": absent(engine.VideoUnavailable, "v", "ja")}},
		"unexpected": {segs: map[string][]engine.CaptionSegment{"en": enSegs}, errs: map[string]error{"ja": errors.New("boom")}},
	}
	captureLogs(t)
	for name, f := range jaOutcomes {
		t.Run(name, func(t *testing.T) {
			resp, err := NewService(f).GetCaptions(context.Background(), "v")
			require.NoError(t, err)
			assert.Equal(t, Result(enSegs), resp.EN)
		})
	}
}

func TestGetCaptionsIdempotent(t *testing.T) {
	f := &stubFetcher{segs: map[string][]engine.CaptionSegment{"ja": jaSegs, "en": enSegs}}
	svc := NewService(f)

	first, err := svc.GetCaptions(context.Background(), "abc123")
	require.NoError(t, err)
	second, err := svc.GetCaptions(context.Background(), "abc123")
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
}

func TestGetCaptionsEmptyTranscriptIsPresent(t *testing.T) {
	f := &stubFetcher{segs: map[string][]engine.CaptionSegment{"en": {}}}

	resp, err := NewService(f).GetCaptions(context.Background(), "v")
	require.NoError(t, err)
	body, _ := json.Marshal(resp)
	assert.JSONEq(t, `{"ja":null,"en":[]}`, string(body))
}

func TestGetCaptionsContextCanceled(t *testing.T) {
	captureLogs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &stubFetcher{errs: map[string]error{"ja": context.Canceled, "en": context.Canceled}}

	_, err := NewService(f).GetCaptions(ctx, "v")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGetCaptionsCanceledIsNotAProviderError(t *testing.T) {
	logs := captureLogs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &stubFetcher{
		segs: map[string][]engine.CaptionSegment{"en": enSegs},
		errs: map[string]error{"ja": context.Canceled},
	}
	before := engine.GetMetrics()["transcript_errors"]

	_, err := NewService(f).GetCaptions(ctx, "v")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, logs.String())
	assert.Equal(t, before, engine.GetMetrics()["transcript_errors"])
}

func TestLanguagesFixedOrder(t *testing.T) {
	assert.Equal(t, [2]string{"ja", "en"}, languages)
}

func TestLookupResponseAlwaysHasBothKeys(t *testing.T) {
	body, err := json.Marshal(LookupResponse{})
	require.NoError(t, err)
	assert.Equal(t, `{"ja":null,"en":null}`, string(body))
	assert.True(t, strings.Index(string(body), `"ja"`) < strings.Index(string(body), `"en"`))
}
