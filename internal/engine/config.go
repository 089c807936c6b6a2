package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	Port            string
	AllowedOrigin   string        // single trusted front-end origin for CORS
	FetchTimeout    time.Duration // per upstream HTTP call
	ShutdownTimeout time.Duration
	YouTubeBaseURL  string // overridable for tests and regional mirrors
	HTTPClient      *http.Client
	BrowserClient   *BrowserClient // nil = plain net/http for watch pages
}

// DefaultYouTubeBaseURL is used when Config.YouTubeBaseURL is empty.
const DefaultYouTubeBaseURL = "https://www.youtube.com"

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, captions).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.YouTubeBaseURL == "" {
		c.YouTubeBaseURL = DefaultYouTubeBaseURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.FetchTimeout}
	}
	cfg = c
	Cfg = &cfg
}
