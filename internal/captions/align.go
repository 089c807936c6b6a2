package captions

import (
	"context"
	"math"
)

// AlignWindow is the largest start-time gap, in seconds, at which an English
// segment still pairs with a Japanese one.
const AlignWindow = 2.0

// NoJapaneseMessage is returned by GetAligned when the video has no Japanese lines.
const NoJapaneseMessage = "No Japanese subtitles available for this video"

// AlignedLine is one Japanese segment with its nearest English translation.
// EN is nil when no English segment starts within AlignWindow.
type AlignedLine struct {
	Start float64 `json:"start"`
	JA    string  `json:"ja"`
	EN    *string `json:"en"`
}

// AlignedResponse is the body of the aligned lookup.
type AlignedResponse struct {
	Lines []AlignedLine `json:"lines"`
}

// Align pairs every ja segment with the en segment whose start is nearest.
// Ties go to the earlier en segment. The result follows ja order and is empty
// (never nil) when ja has no segments.
func Align(ja, en Result) []AlignedLine {
	lines := make([]AlignedLine, 0, len(ja))
	for _, j := range ja {
		line := AlignedLine{Start: j.Start, JA: j.Text}

		best, bestDelta := -1, math.Inf(1)
		for i, e := range en {
			if d := math.Abs(e.Start - j.Start); d < bestDelta {
				best, bestDelta = i, d
			}
		}
		if best >= 0 && bestDelta <= AlignWindow {
			text := en[best].Text
			line.EN = &text
		}
		lines = append(lines, line)
	}
	return lines
}

// GetAligned looks up both languages and aligns them. A video with English
// but no Japanese captions is a *NotFoundError carrying NoJapaneseMessage.
func (s *Service) GetAligned(ctx context.Context, videoID string) (AlignedResponse, error) {
	resp, err := s.GetCaptions(ctx, videoID)
	if err != nil {
		return AlignedResponse{}, err
	}
	lines := Align(resp.JA, resp.EN)
	if len(lines) == 0 {
		return AlignedResponse{}, &NotFoundError{VideoID: videoID, Message: NoJapaneseMessage}
	}
	return AlignedResponse{Lines: lines}, nil
}
