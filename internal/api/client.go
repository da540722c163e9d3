package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fastjson"

	"github.com/glassd/unqork-audit-logs/internal/auth"
)

// Options configures the audit logs API client.
type Options struct {
	// AuditLogsURL is the full URL of the log-locations endpoint.
	AuditLogsURL string

	// MaxConcurrentDownloads bounds in-flight file downloads. Values
	// below 1 are treated as 1.
	MaxConcurrentDownloads int

	// Timeout applies to each individual request.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification. Only
	// for instances behind self-signed proxies.
	InsecureSkipVerify bool
}

// Client talks to the upstream audit logs API: resolving the list of
// log file locations for a time window, and downloading the files.
//
// Every request carries a bearer token from the token manager. A 401
// response invalidates the token and retries that one request once
// with a fresh token; a second 401 is terminal.
type Client struct {
	opts   Options
	tokens *auth.TokenManager
	http   *http.Client
}

// NewHTTPClient builds the HTTP client for upstream requests. The
// token endpoint sits behind the same gateway as everything else, so
// callers share one client between the token manager and the API
// client to keep the timeout and TLS settings consistent.
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	c := &http.Client{Timeout: timeout}
	if insecureSkipVerify {
		c.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return c
}

// NewClient returns a Client using the given token manager. When
// httpClient is nil a client is built from the options' timeout and
// TLS settings.
func NewClient(opts Options, tokens *auth.TokenManager, httpClient *http.Client) *Client {
	if opts.MaxConcurrentDownloads < 1 {
		opts.MaxConcurrentDownloads = 1
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(opts.Timeout, opts.InsecureSkipVerify)
	}
	return &Client{opts: opts, tokens: tokens, http: httpClient}
}

// FetchLocations returns the download URLs of all log files recorded
// for the window [start, end). Both boundaries are the exact strings
// the API expects as startDatetime/endDatetime.
func (c *Client) FetchLocations(ctx context.Context, start, end string) ([]string, error) {
	query := url.Values{
		"startDatetime": {start},
		"endDatetime":   {end},
	}

	resp, err := c.doAuthed(ctx, c.opts.AuditLogsURL+"?"+query.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read locations response: %w", err)
	}

	v, err := fastjson.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("api: parse locations response: %w", err)
	}

	var locations []string
	for _, item := range v.GetArray("logLocations") {
		if b, err := item.StringBytes(); err == nil {
			locations = append(locations, string(b))
		}
	}

	log.Debug().
		Int("locations", len(locations)).
		Str("window_start", start).
		Str("window_end", end).
		Msg("resolved log file locations")
	return locations, nil
}

// DownloadFile downloads one log file and returns its raw bytes,
// still compressed.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	resp, err := c.doAuthed(ctx, fileURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read file body: %w", err)
	}
	return data, nil
}

// DownloadAll downloads every URL with bounded parallelism, returning
// the file contents in input order. onProgress, when non-nil, is called
// after each completed file with (completed, total); calls are
// serialized. Any single file's failure fails the whole batch.
func (c *Client) DownloadAll(ctx context.Context, urls []string, onProgress func(completed, total int)) ([][]byte, error) {
	results := make([][]byte, len(urls))
	sem := make(chan struct{}, c.opts.MaxConcurrentDownloads)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
		firstErr  error
	)

	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := c.DownloadFile(ctx, u)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[i] = data
			completed++
			if onProgress != nil {
				onProgress(completed, len(urls))
			}
		}(i, u)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// doAuthed performs an authenticated GET, refreshing the token and
// retrying exactly once on 401. Any remaining non-2xx status is an
// error carrying the status code and a truncated body.
func (c *Client) doAuthed(ctx context.Context, requestURL string) (*http.Response, error) {
	resp, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		log.Debug().Msg("got 401, refreshing token and retrying")
		c.tokens.Invalidate()

		resp, err = c.get(ctx, requestURL)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("api: request failed (HTTP %d): %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, requestURL string) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: request failed: %w", err)
	}
	return resp, nil
}
