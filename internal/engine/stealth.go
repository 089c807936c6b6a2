package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Re-export stealth types and functions for engine consumers.
type BrowserClient = stealth.BrowserClient

func RandomUserAgent() string { return stealth.RandomUserAgent() }

// StealthTimeoutSeconds converts d to the whole seconds stealth.WithTimeout
// expects, rounding up and never below one.
func StealthTimeoutSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	return max(secs, 1)
}

// maxPageBytes caps any upstream body read by FetchPage.
const maxPageBytes = 6 * 1024 * 1024

// FetchPage performs a single request and returns the body and status code.
// With a BrowserClient configured the request goes out with a Chrome TLS
// fingerprint (and proxy, if the client has a pool); otherwise Cfg.HTTPClient is used.
// Non-2xx statuses are not errors; callers decide.
// The browser client takes no context, so FetchPage returns as soon as ctx is
// done and the abandoned request ends at the client's own timeout.
func FetchPage(ctx context.Context, method, url string, headers map[string]string, body io.Reader) ([]byte, int, error) {
	if bc := Cfg.BrowserClient; bc != nil {
		data, status, err := doWithContext(ctx, func() ([]byte, int, error) {
			data, _, status, err := bc.Do(method, url, headers, body)
			return data, status, err
		})
		if err != nil {
			return nil, status, fmt.Errorf("browser %s %s: %w", method, url, err)
		}
		return data, status, nil
	}
	return FetchHTTP(ctx, method, url, headers, body)
}

type fetchResult struct {
	data   []byte
	status int
	err    error
}

// doWithContext runs do in its own goroutine and stops waiting when ctx is done.
func doWithContext(ctx context.Context, do func() ([]byte, int, error)) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	ch := make(chan fetchResult, 1)
	go func() {
		data, status, err := do()
		ch <- fetchResult{data: data, status: status, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case r := <-ch:
		return r.data, r.status, r.err
	}
}

// FetchHTTP is FetchPage without the browser client: always Cfg.HTTPClient.
func FetchHTTP(ctx context.Context, method, url string, headers map[string]string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := Cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return data, resp.StatusCode, nil
}
