package captionserver

import (
	"context"
	"fmt"

	"github.com/anatolykoptev/go_captions/internal/captions"
	"github.com/anatolykoptev/go_captions/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CaptionsInput is the input for youtube_captions.
type CaptionsInput struct {
	VideoID string `json:"video_id" jsonschema:"YouTube video ID or watch/short/embed URL"`
}

// RegisterTools registers the caption tools on the given MCP server.
func RegisterTools(server *mcp.Server, svc *captions.Service) {
	registerYouTubeCaptions(server, svc)
	registerYouTubeCaptionsAligned(server, svc)
}

func registerYouTubeCaptions(server *mcp.Server, svc *captions.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_captions",
		Description: "Fetch the Japanese (ja) and English (en) captions of a YouTube video. Returns timed segments {text, start, duration} per language; a language without captions is null. Fails when neither language is available.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input CaptionsInput) (*mcp.CallToolResult, captions.LookupResponse, error) {
		videoID := toolutil.NormVideoID(input.VideoID)
		if videoID == "" {
			return nil, captions.LookupResponse{}, fmt.Errorf("video_id is required")
		}
		resp, err := svc.GetCaptions(ctx, videoID)
		if err != nil {
			return nil, captions.LookupResponse{}, err
		}
		return nil, resp, nil
	})
}

func registerYouTubeCaptionsAligned(server *mcp.Server, svc *captions.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_captions_aligned",
		Description: "Fetch a YouTube video's Japanese captions, each paired with the English caption starting nearest to it (within 2 seconds, else null). Returns {lines: [{start, ja, en}]}. Fails when the video has no Japanese captions.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input CaptionsInput) (*mcp.CallToolResult, captions.AlignedResponse, error) {
		videoID := toolutil.NormVideoID(input.VideoID)
		if videoID == "" {
			return nil, captions.AlignedResponse{}, fmt.Errorf("video_id is required")
		}
		resp, err := svc.GetAligned(ctx, videoID)
		if err != nil {
			return nil, captions.AlignedResponse{}, err
		}
		return nil, resp, nil
	})
}
