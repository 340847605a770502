package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Downloader fetches the raw bytes for a URL. Implementations perform one GET
// with no retries; redirects follow the underlying client's defaults.
type Downloader interface {
	Download(ctx context.Context, url string) (body []byte, contentType string, err error)
}

type HTTPDownloader struct {
	client    *http.Client
	userAgent string
}

func NewHTTPDownloader(client *http.Client, userAgent string) *HTTPDownloader {
	return &HTTPDownloader{
		client:    client,
		userAgent: userAgent,
	}
}

func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", &HTTPError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &HTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &HTTPError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return body, resp.Header.Get("Content-Type"), nil
}
