// go_captions: YouTube caption lookup service.
//
// Serves GET /captions/{videoId} returning Japanese and English transcripts,
// plus the same lookup as an MCP tool (youtube_captions) on /mcp.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/anatolykoptev/go_captions/internal/captions"
	"github.com/anatolykoptev/go_captions/internal/captionserver"
	"github.com/anatolykoptev/go_captions/internal/engine"
	"github.com/anatolykoptev/go_captions/internal/engine/sources"
)

var (
	version = "dev"
	port    = env.Str("PORT", "8892")
)

func main() {
	initLogger(env.Str("LOG_LEVEL", "info"))
	initEngine()

	svc := captions.NewService(sources.YouTubeTranscripts{})
	srv := &http.Server{
		Addr: ":" + port,
		Handler: captionserver.NewHandler(svc, captionserver.Options{
			Name:          "go_captions",
			Version:       version,
			AllowedOrigin: engine.Cfg.AllowedOrigin,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting go_captions",
			slog.String("port", port),
			slog.String("allowed_origin", engine.Cfg.AllowedOrigin),
			slog.String("version", version),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), engine.Cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", slog.Any("error", err))
		}
	}
}

func initLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func initEngine() {
	c := engine.Config{
		Port:            port,
		AllowedOrigin:   env.Str("ALLOWED_ORIGIN", "http://localhost:3000"),
		FetchTimeout:    env.Duration("FETCH_TIMEOUT", 15*time.Second),
		ShutdownTimeout: env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		YouTubeBaseURL:  env.Str("YOUTUBE_BASE_URL", engine.DefaultYouTubeBaseURL),
	}
	c.HTTPClient = &http.Client{
		Timeout: c.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
		},
	}

	if !strings.EqualFold(env.Str("STEALTH_CLIENT", "true"), "false") {
		var opts []stealth.ClientOption
		opts = append(opts, stealth.WithTimeout(engine.StealthTimeoutSeconds(c.FetchTimeout)))

		if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
			pool, err := proxypool.NewWebshare(apiKey)
			if err != nil {
				slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
			} else {
				opts = append(opts, stealth.WithProxyPool(pool))
				slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
			}
		}

		bc, err := stealth.NewClient(opts...)
		if err != nil {
			slog.Error("stealth client init failed, using net/http", slog.Any("error", err))
		} else {
			c.BrowserClient = bc
			slog.Info("stealth browser client initialized")
		}
	}

	engine.Init(c)
}
