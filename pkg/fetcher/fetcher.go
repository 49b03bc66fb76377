package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxBytes caps a single download.
const DefaultMaxBytes = 256 << 20

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected server response (%d) while retrieving %s", e.StatusCode, e.URL)
}

type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: 60 * time.Second},
		maxBytes: DefaultMaxBytes,
	}
}

// NewFetcherWithClient uses client for every request, e.g. an httptest client.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	f := NewFetcher()
	if client != nil {
		f.client = client
	}
	return f
}

// GetHtml fetches url and parses it as an HTML document.
func (f *Fetcher) GetHtml(ctx context.Context, url string) (*goquery.Document, error) {
	bodyBytes, err := f.GetBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// GetBytes downloads url. Non-200 responses return a *StatusError.
func (f *Fetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(bodyBytes)) > f.maxBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", f.maxBytes)
	}
	return bodyBytes, nil
}
