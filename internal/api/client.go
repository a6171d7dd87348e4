// Package api is the HTTP gateway to the JW mediator endpoints.
//
// There is deliberately no retry or backoff here: the crawl treats the first
// fetch failure as fatal, and retry/resume belongs to the download
// collaborators, not the indexer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jwb-index/jwb-index/internal/model"
)

const (
	MediatorBase = "https://data.jw-api.org/mediator/v1/"
	LanguagesURL = MediatorBase + "languages/E/web?clientType=www"
	ClientType   = "www"
	UserAgent    = "jwb-index/1.0"
)

// ErrFetch is the root of all transport and response-shape failures.
var ErrFetch = errors.New("fetch failed")

var Client = &http.Client{
	Timeout: 30 * time.Second,
}

// RateLimiter paces every outbound mediator call. 4 requests/second with a
// burst of 8 — a deep catalog walk issues one request per category, and the
// mediator is a shared public endpoint.
var RateLimiter = newRateLimiter(4.0, 8)

// limitedDo is the single gateway for every outbound mediator call. It waits
// for the rate limiter, executes exactly one attempt, and writes a structured
// log entry for the request. label is a short endpoint name used in log
// entries (e.g. "categories"). Caller closes the returned body.
func limitedDo(ctx context.Context, label, rawURL string) (*http.Response, error) {
	waited, err := RateLimiter.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: rate limiter cancelled for %s: %w", ErrFetch, label, err)
	}
	if waited > time.Millisecond {
		LogRateLimitWait(label, waited)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Add("User-Agent", UserAgent)

	start := time.Now()
	resp, err := Client.Do(req)
	duration := time.Since(start)
	if err != nil {
		LogRequest(label, 0, duration, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, label, err)
	}
	LogRequest(label, resp.StatusCode, duration, nil)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: HTTP %s", ErrFetch, label, resp.Status)
	}
	return resp, nil
}

// CategoryURL builds the detailed category document URL for one crawl step.
func CategoryURL(lang, key string) string {
	query := url.Values{}
	query.Set("detailed", "1")
	query.Set("clientType", ClientType)
	return MediatorBase + "categories/" + url.PathEscape(lang) + "/" +
		url.PathEscape(key) + "?" + query.Encode()
}

// GetCategory retrieves the raw category document for one (language, key)
// pair. The document is returned as text for the structural tokenizer; it is
// never decoded as JSON here. An empty body is a fetch error.
func GetCategory(ctx context.Context, lang, key string) (string, error) {
	resp, err := limitedDo(ctx, "categories", CategoryURL(lang, key))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read categories response: %w", ErrFetch, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", fmt.Errorf("%w: empty response for category %s/%s", ErrFetch, lang, key)
	}
	return string(body), nil
}

// GetLanguages retrieves the list of available broadcast languages.
func GetLanguages(ctx context.Context) ([]model.Language, error) {
	resp, err := limitedDo(ctx, "languages", LanguagesURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var obj model.LanguagesResp
	if err = json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: decode languages response: %w", ErrFetch, err)
	}
	if len(obj.Languages) == 0 {
		return nil, fmt.Errorf("%w: language list is empty", ErrFetch)
	}
	return obj.Languages, nil
}

// GetManifest fetches an HLS master manifest for adaptive-stream quality
// resolution. Caller closes the returned reader.
func GetManifest(ctx context.Context, manifestURL string) (io.ReadCloser, error) {
	resp, err := limitedDo(ctx, "manifest", manifestURL)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
