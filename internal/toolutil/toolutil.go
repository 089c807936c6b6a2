// Package toolutil provides shared helper functions for the caption HTTP and MCP surfaces.
package toolutil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// WriteJSON encodes v with the given status. Encoding happens before the
// header is written so a marshal failure can still become a 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("json marshal", slog.Any("error", err))
		status = http.StatusInternalServerError
		data = []byte(`{"detail":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// WriteDetail writes {"detail": msg} with the given status.
func WriteDetail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Detail: msg})
}

var videoIDRE = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|embed/|live/)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// NormVideoID accepts a bare video ID or any common YouTube URL form and
// returns the ID. Input that is not a recognised URL is returned trimmed.
func NormVideoID(s string) string {
	s = strings.TrimSpace(s)
	if m := videoIDRE.FindStringSubmatch(s); len(m) >= 2 {
		return m[1]
	}
	return s
}
