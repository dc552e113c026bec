package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sjsage522/dealcatalog/logger"
	"sjsage522/dealcatalog/pkg/errors"
	"sjsage522/dealcatalog/services/cache"

	"golang.org/x/net/html/charset"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// FetcherConfig holds the per-fetcher HTTP settings.
type FetcherConfig struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	MaxAttempts    int
	// BackoffBase is the delay before the second attempt; it doubles for each later attempt.
	BackoffBase time.Duration
	// CacheTTL enables the page cache when positive.
	CacheTTL time.Duration
}

// DefaultFetcherConfig returns 3 attempts, 1s base backoff and a 30s timeout.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		UserAgent:      defaultUserAgent,
		AcceptLanguage: "en-US,en;q=0.9",
		Timeout:        30 * time.Second,
		MaxAttempts:    3,
		BackoffBase:    time.Second,
	}
}

// Fetcher downloads pages with retries. Each Fetcher owns its HTTP client.
type Fetcher struct {
	client *http.Client
	config FetcherConfig
	cache  cache.CacheService
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a Fetcher. cacheSvc may be nil.
func NewFetcher(config FetcherConfig, cacheSvc cache.CacheService) *Fetcher {
	defaults := DefaultFetcherConfig()
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.AcceptLanguage == "" {
		config.AcceptLanguage = defaults.AcceptLanguage
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = defaults.MaxAttempts
	}

	return &Fetcher{
		client: &http.Client{Timeout: config.Timeout},
		config: config,
		cache:  cacheSvc,
		sleep:  sleepContext,
	}
}

// Close releases idle connections held by the fetcher's client.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

// Backoff returns the delay before the given 1-based attempt.
func (f *Fetcher) Backoff(attempt int) time.Duration {
	if attempt < 2 {
		return 0
	}
	return f.config.BackoffBase << (attempt - 2)
}

// Fetch returns the UTF-8 body of pageURL. Transport errors, timeouts and
// non-200 statuses are retried up to MaxAttempts times with exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (io.Reader, error) {
	host := hostOf(pageURL)
	log := logger.ForComponent("fetcher").WithField("host", host)

	if body, ok := f.fromCache(pageURL); ok {
		log.Debug().Str("url", pageURL).Msg("Serving page from cache")
		return bytes.NewReader(body), nil
	}

	var lastErr error
	for attempt := 1; attempt <= f.config.MaxAttempts; attempt++ {
		if delay := f.Backoff(attempt); delay > 0 {
			if err := f.sleep(ctx, delay); err != nil {
				return nil, errors.NewNetwork(host, "fetch cancelled", err)
			}
		}

		body, err := f.fetchOnce(ctx, pageURL)
		if err == nil {
			f.toCache(pageURL, body)
			return bytes.NewReader(body), nil
		}

		lastErr = err
		log.Warn().
			Int("attempt", attempt).
			Int("max_attempts", f.config.MaxAttempts).
			Err(err).
			Msg("Fetch attempt failed")

		if ingestErr, ok := err.(*errors.IngestError); ok && !ingestErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, errors.NewNetwork(host, fmt.Sprintf("giving up after %d attempts", f.config.MaxAttempts), lastErr)
}

// fetchOnce sends a single GET with browser-like headers and converts the body to UTF-8.
func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) ([]byte, error) {
	host := hostOf(pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.NewConfiguration("failed to create request for "+pageURL, err)
	}

	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.config.AcceptLanguage)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.NewNetwork(host, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewNetwork(host, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetwork(host, "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		return bodyBytes, nil
	}

	converted, err := io.ReadAll(encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes)))
	if err != nil {
		return nil, errors.NewParsing(host, "failed to convert body to UTF-8", err)
	}
	return converted, nil
}

func (f *Fetcher) fromCache(pageURL string) ([]byte, bool) {
	if f.cache == nil || f.config.CacheTTL <= 0 {
		return nil, false
	}

	body, err := f.cache.Get(cache.PageKey(pageURL))
	if err != nil {
		return nil, false
	}
	return body, true
}

func (f *Fetcher) toCache(pageURL string, body []byte) {
	if f.cache == nil || f.config.CacheTTL <= 0 {
		return
	}

	if err := f.cache.Set(cache.PageKey(pageURL), body, f.config.CacheTTL); err != nil {
		logger.ForComponent("fetcher").Warn().
			Err(errors.NewCache(hostOf(pageURL), "failed to cache page", err)).
			Msg("Page cache write failed")
	}
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return pageURL
	}
	return u.Host
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
