// Package feed samples the SMS panel's DataTables endpoint and turns
// raw windows into validated, time-ordered message rows.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Conditions a caller must distinguish from an ordinary transport
// failure. ErrAuthRejected means the panel session is no longer valid
// and polling should slow down until the operator replaces it.
var (
	ErrAuthRejected  = errors.New("feed authentication rejected")
	ErrEmptyResponse = errors.New("feed returned empty response")
	ErrBadPayload    = errors.New("feed returned non-JSON payload")
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher performs the raw window query against the panel. It knows
// the session cookie and query shape, nothing about row semantics.
type Fetcher struct {
	client  HTTPClient
	baseURL string
	session string
	window  int
	timeout time.Duration
	now     func() time.Time
}

// NewFetcher creates a Fetcher for the panel at baseURL, authenticated
// by the PHPSESSID session cookie, requesting windows of size rows.
func NewFetcher(client HTTPClient, baseURL, session string, size int) *Fetcher {
	return &Fetcher{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		window:  size,
		timeout: 20 * time.Second,
		now:     time.Now,
	}
}

// FetchWindow requests one window and returns the raw response body.
// Authentication rejection (401/403 or a login page in the body) is
// reported as ErrAuthRejected, a blank body as ErrEmptyResponse.
func (f *Fetcher) FetchWindow(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+ajaxPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.URL.RawQuery = windowQuery(f.window, f.now()).Encode()
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Referer", f.baseURL+"/client/SMSDashboard")
	req.AddCookie(&http.Cookie{Name: "PHPSESSID", Value: f.session})

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch window: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrAuthRejected
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyResponse
	}
	// An expired session gets redirected to the HTML login page.
	if bytes.Contains(bytes.ToLower(body), []byte("login")) {
		return nil, ErrAuthRejected
	}
	return body, nil
}
