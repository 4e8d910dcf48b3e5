// Package fetch downloads published sanctions lists to local files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/sanctions/internal/fileutil"
)

// DefaultUserAgent identifies the pipeline to list publishers.
const DefaultUserAgent = "sanctions-pipeline/0.1 (+github)"

// FetchError reports a download that failed. Status is 0 when the request
// never produced a response.
type FetchError struct {
	URL      string
	Status   int
	Size     int64
	MinBytes int64
	Err      error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	case e.TooSmall():
		return fmt.Sprintf("fetch %s: payload too small: %d bytes < %d (status %d)", e.URL, e.Size, e.MinBytes, e.Status)
	default:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// TooSmall reports whether the server answered 2xx with fewer bytes than
// required.
func (e *FetchError) TooSmall() bool {
	return e.Err == nil && e.Status >= 200 && e.Status < 300 && e.Size < e.MinBytes
}

func (e *FetchError) retryable() bool {
	if e.Err != nil {
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	}
	return e.Status >= 500
}

// Result describes a completed download.
type Result struct {
	URL      string
	Path     string
	Status   int
	Size     int64
	Attempts int
	Duration time.Duration
}

// Client downloads files over HTTP.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Retries   int           // extra attempts after the first
	Backoff   time.Duration // multiplied by the attempt number
	Logger    *slog.Logger
}

// NewClient returns a Client with the given request timeout and the default
// user agent.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: DefaultUserAgent,
		Retries:   2,
		Backoff:   time.Second,
	}
}

// Download fetches url into dest. The destination is replaced only when the
// server answered 2xx with at least minBytes bytes; otherwise any existing
// file is left untouched. Transport errors and 5xx responses are retried.
func (c *Client) Download(ctx context.Context, url, dest string, minBytes int64) (Result, error) {
	start := time.Now()
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("op", "fetch", "url", url, "dest", dest)

	var (
		res Result
		err error
	)
	for attempt := 1; attempt <= c.Retries+1; attempt++ {
		res, err = c.attempt(ctx, url, dest, minBytes)
		res.Attempts = attempt
		if err == nil {
			break
		}

		var ferr *FetchError
		if !errors.As(err, &ferr) || !ferr.retryable() || attempt > c.Retries {
			break
		}

		wait := c.Backoff * time.Duration(attempt)
		logger.Warn("download failed, retrying", "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			err = &FetchError{URL: url, Err: ctx.Err()}
			attempt = c.Retries + 1
		case <-time.After(wait):
		}
	}
	res.Duration = time.Since(start)

	if err != nil {
		logger.Error("download failed", "attempts", res.Attempts, "error", err)
		return res, err
	}
	logger.Info("download complete",
		"status", res.Status,
		"bytes", res.Size,
		"attempts", res.Attempts,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (c *Client) attempt(ctx context.Context, url, dest string, minBytes int64) (Result, error) {
	res := Result{URL: url, Path: dest}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return res, fmt.Errorf("fetch %s: %w", url, err)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return res, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	res.Status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return res, &FetchError{URL: url, Status: resp.StatusCode}
	}

	err = fileutil.WriteAtomic(dest, func(w io.Writer) error {
		n, err := io.Copy(w, resp.Body)
		res.Size = n
		if err != nil {
			return &FetchError{URL: url, Status: resp.StatusCode, Size: n, Err: err}
		}
		if n < minBytes {
			return &FetchError{URL: url, Status: resp.StatusCode, Size: n, MinBytes: minBytes}
		}
		return nil
	})
	return res, err
}
