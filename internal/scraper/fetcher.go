package scraper

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultFetchTimeout = 12 * time.Second
	maxResponseBytes    = 2 * 1024 * 1024

	// Desktop Chrome string; plenty of sites return stripped-down or empty
	// pages to anything that identifies as a bot.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// FetchStatus tags the outcome of a single page fetch.
type FetchStatus string

const (
	FetchOK         FetchStatus = "ok"
	FetchBadURL     FetchStatus = "bad_url"
	FetchTransport  FetchStatus = "transport_error"
	FetchBadStatus  FetchStatus = "http_error"
	FetchUnreadable FetchStatus = "unreadable_body"
)

// Fetcher retrieves single pages over HTTP. It never retries; callers decide
// whether a failed page is worth revisiting.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher wraps the provided client. A nil client gets the default
// browser-like configuration: fixed timeout, redirects followed and relaxed
// certificate validation, since small-business sites routinely serve expired
// or mismatched certificates.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{
			Timeout: defaultFetchTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
	return &Fetcher{client: client, userAgent: browserUserAgent}
}

// Fetch retrieves the page body at rawURL. It is total: every failure mode is
// reported through the returned status, never an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, FetchStatus) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", FetchBadURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", FetchBadURL
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", FetchTransport
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", FetchBadStatus
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", FetchUnreadable
	}
	return string(body), FetchOK
}
