package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/anatolykoptev/go_captions/internal/engine"
)

// YouTube transcript fetching.
// Primary:  watch page → ytInitialPlayerResponse → captionTracks → timedtext XML
// Fallback: ANDROID Innertube /player → captionTracks → timedtext XML

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// YouTubeTranscripts fetches single-language transcripts from YouTube.
type YouTubeTranscripts struct{}

// FetchTranscript implements captions.TranscriptFetcher.
func (YouTubeTranscripts) FetchTranscript(ctx context.Context, videoID, lang string) ([]engine.CaptionSegment, error) {
	return FetchYouTubeTranscript(ctx, videoID, lang)
}

// FetchYouTubeTranscript returns the transcript of videoID in exactly lang.
// Failures are *engine.TranscriptError. No retries.
func FetchYouTubeTranscript(ctx context.Context, videoID, lang string) ([]engine.CaptionSegment, error) {
	engine.IncrTranscriptFetches()

	fail := func(kind engine.FailureKind, err error) error {
		return &engine.TranscriptError{Kind: kind, VideoID: videoID, Lang: lang, Err: err}
	}

	tracks, kind, err := loadCaptionTracks(ctx, videoID)
	if err != nil {
		return nil, fail(kind, err)
	}

	track, kind, err := pickTrack(tracks, lang)
	if err != nil {
		return nil, fail(kind, err)
	}

	segs, err := fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, fail(engine.OtherFailure, err)
	}
	return segs, nil
}

// loadCaptionTracks resolves the caption track list, falling back to the
// Innertube player when the watch page cannot be read or is blocked.
func loadCaptionTracks(ctx context.Context, videoID string) ([]captionTrack, engine.FailureKind, error) {
	player, err := fetchWatchPagePlayer(ctx, videoID)
	if err == nil {
		tracks, kind, terr := captionTracksOf(player)
		if terr == nil || kind.Expected() {
			return tracks, kind, terr
		}
		err = terr
	}
	if ctx.Err() != nil {
		return nil, engine.OtherFailure, ctx.Err()
	}

	slog.Warn("youtube: watch page failed, trying player",
		slog.String("id", videoID), slog.Any("err", err))
	engine.IncrPlayerFallbacks()

	player, perr := fetchPlayerResponse(ctx, videoID)
	if perr != nil {
		return nil, engine.OtherFailure, fmt.Errorf("watch page: %v; %w", err, perr)
	}
	return captionTracksOf(player)
}

// fetchWatchPagePlayer scrapes the watch page HTML and decodes ytInitialPlayerResponse.
func fetchWatchPagePlayer(ctx context.Context, videoID string) (*innertubePlayerResp, error) {
	watchURL := engine.Cfg.YouTubeBaseURL + ytWatchPath + "?v=" + url.QueryEscape(videoID)

	headers := map[string]string{
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"accept-language": "en-US,en;q=0.9",
		"user-agent":      engine.RandomUserAgent(),
	}
	body, status, err := engine.FetchPage(ctx, "GET", watchURL, headers, nil)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	if status != 200 {
		return nil, fmt.Errorf("watch page: HTTP %d", status)
	}

	raw, err := extractPlayerResponse(body)
	if err != nil {
		return nil, err
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(raw, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return &playerResp, nil
}

// extractPlayerResponse finds the script carrying ytInitialPlayerResponse and
// returns its JSON object. A consent interstitial is reported as an error.
func extractPlayerResponse(page []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}
	if doc.Find(`form[action^="https://consent.youtube.com"]`).Length() > 0 {
		return nil, errors.New("consent page returned instead of watch page")
	}

	var raw []byte
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, ytInitialPlayerResponseMarker)
		if idx < 0 {
			return true
		}
		raw = extractJSON([]byte(text[idx+len(ytInitialPlayerResponseMarker):]))
		return raw == nil
	})
	if raw == nil {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	return raw, nil
}

// captionTracksOf classifies the player response and returns its caption tracks.
func captionTracksOf(p *innertubePlayerResp) ([]captionTrack, engine.FailureKind, error) {
	if ps := p.PlayabilityStatus; ps != nil && ps.Status != "" && ps.Status != "OK" {
		switch ps.Status {
		case "ERROR":
			return nil, engine.VideoUnavailable, fmt.Errorf("video unavailable: %s", ps.Reason)
		default:
			// LOGIN_REQUIRED (bot check, age gate), UNPLAYABLE, LIVE_STREAM_OFFLINE, ...
			return nil, engine.OtherFailure, fmt.Errorf("playability %s: %s", ps.Status, ps.Reason)
		}
	}
	if p.Captions == nil {
		return nil, engine.TranscriptsDisabled, errors.New("no captions in player response")
	}
	tracks := p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, engine.TranscriptsDisabled, errors.New("no caption tracks")
	}
	return tracks, engine.OtherFailure, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickTrack selects the track for exactly lang: manual first, then auto-generated.
// Tracks that require a PoToken are skipped.
func pickTrack(tracks []captionTrack, lang string) (captionTrack, engine.FailureKind, error) {
	var matching []captionTrack
	for _, t := range tracks {
		if t.LanguageCode == lang {
			matching = append(matching, t)
		}
	}
	if len(matching) == 0 {
		return captionTrack{}, engine.NoTranscriptFound, fmt.Errorf("no %q track among %d", lang, len(tracks))
	}

	var usable []captionTrack
	for _, t := range matching {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, engine.OtherFailure, errors.New("all caption tracks require PoToken")
	}
	for _, t := range usable {
		if t.Kind != "asr" {
			return t, engine.OtherFailure, nil
		}
	}
	return usable[0], engine.OtherFailure, nil
}

// timedTextURL resolves baseURL against the configured YouTube host and drops
// the fmt parameter so the legacy <transcript><text start dur> format is served.
func timedTextURL(baseURL string) (string, error) {
	base, err := url.Parse(engine.Cfg.YouTubeBaseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("caption url: %w", err)
	}
	u := base.ResolveReference(ref)
	q := u.Query()
	q.Del("fmt")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetchTimedText fetches and parses a YouTube timedtext XML caption URL.
func fetchTimedText(ctx context.Context, baseURL string) ([]engine.CaptionSegment, error) {
	u, err := timedTextURL(baseURL)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"user-agent":      engine.RandomUserAgent(),
		"accept-language": "en-US,en;q=0.9",
	}
	body, status, err := engine.FetchPage(ctx, "GET", u, headers, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	if status != 200 {
		return nil, fmt.Errorf("fetch timedtext: HTTP %d", status)
	}
	return parseTimedText(body)
}

// parseTimedText decodes both the legacy <transcript> format (seconds) and
// srv3 <timedtext><body><p t d> (milliseconds).
func parseTimedText(body []byte) ([]engine.CaptionSegment, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty timedtext response")
	}

	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segs := make([]engine.CaptionSegment, 0, len(tt.Lines)+len(tt.Body.Paras))
	for _, line := range tt.Lines {
		text := engine.CleanCaptionText(line.Text)
		if text == "" {
			continue
		}
		segs = append(segs, engine.CaptionSegment{
			Text:     text,
			Start:    parseSeconds(line.Start, 1),
			Duration: parseSeconds(line.Dur, 1),
		})
	}
	for _, p := range tt.Body.Paras {
		text := engine.CleanCaptionText(p.Inner)
		if text == "" {
			continue
		}
		segs = append(segs, engine.CaptionSegment{
			Text:     text,
			Start:    parseSeconds(p.T, 1000),
			Duration: parseSeconds(p.D, 1000),
		})
	}
	return segs, nil
}

// parseSeconds parses a non-negative number and divides it by unit.
// Missing or malformed values are 0.
func parseSeconds(s string, unit float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v / unit
}
