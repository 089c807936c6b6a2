// Package captionserver exposes caption lookup over plain HTTP and as an MCP tool.
package captionserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/anatolykoptev/go_captions/internal/captions"
	"github.com/anatolykoptev/go_captions/internal/engine"
	"github.com/anatolykoptev/go_captions/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"
)

// Options configures the HTTP surface.
type Options struct {
	Name          string
	Version       string
	AllowedOrigin string // empty = no CORS headers
}

// NewHandler builds every route:
//
//	GET /captions/{videoId}          caption lookup
//	GET /captions/{videoId}/aligned  ja lines paired with the nearest en line
//	GET /health                      liveness
//	GET /metrics                     plain-text counters
//	    /mcp                         streamable HTTP MCP endpoint (caption tools)
func NewHandler(svc *captions.Service, opts Options) http.Handler {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    opts.Name,
		Version: opts.Version,
	}, nil)
	RegisterTools(server, svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /captions/{videoId}", handleGetCaptions(svc))
	mux.HandleFunc("GET /captions/{videoId}/aligned", handleGetAligned(svc))
	mux.HandleFunc("GET /health", handleHealth(opts.Version))
	mux.HandleFunc("GET /metrics", handleMetrics)
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil))

	return withCORS(mux, opts.AllowedOrigin)
}

// withCORS admits exactly one trusted origin with any method and header, credentials included.
func withCORS(h http.Handler, origin string) http.Handler {
	if origin == "" {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(h)
}

func handleGetCaptions(svc *captions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID := r.PathValue("videoId")
		resp, err := svc.GetCaptions(r.Context(), videoID)
		writeLookup(w, videoID, resp, err)
	}
}

func handleGetAligned(svc *captions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID := r.PathValue("videoId")
		resp, err := svc.GetAligned(r.Context(), videoID)
		writeLookup(w, videoID, resp, err)
	}
}

// writeLookup maps ErrNotFound to 404 and any other error (a done request context) to 500.
func writeLookup(w http.ResponseWriter, videoID string, resp any, err error) {
	switch {
	case errors.Is(err, captions.ErrNotFound):
		toolutil.WriteDetail(w, http.StatusNotFound, err.Error())
	case err != nil:
		slog.Warn("captions: lookup aborted", slog.String("video_id", videoID), slog.Any("error", err))
		toolutil.WriteDetail(w, http.StatusInternalServerError, "internal error")
	default:
		toolutil.WriteJSON(w, http.StatusOK, resp)
	}
}

type healthBody struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func handleHealth(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		toolutil.WriteJSON(w, http.StatusOK, healthBody{Status: "ok", Version: version})
	}
}

func handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, engine.FormatMetrics())
}
