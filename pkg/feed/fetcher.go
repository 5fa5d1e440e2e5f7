package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Document is the outcome of one conditional fetch of the feed URL.
type Document struct {
	Body         []byte
	ETag         string
	LastModified string
	// NotModified is true when the server answered 304; Body is empty then.
	NotModified bool
}

// Fetcher retrieves the feed document over HTTP, using the revision markers
// persisted from the previous run for conditional requests.
type Fetcher struct {
	client *http.Client
	url    string
}

func NewFetcher(url string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// Fetch performs a GET with If-None-Match / If-Modified-Since derived from
// the previous run. Any status other than 200 or 304 is an error for the run.
func (f *Fetcher) Fetch(ctx context.Context, etag, lastModified string) (Document, error) {
	if f.url == "" {
		return Document{}, errors.New("feed URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Document{}, err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Document{}, fmt.Errorf("unable to read feed body: %w", err)
		}
		log.Debugf("fetched feed document (%d bytes)", len(body))
		return Document{
			Body:         body,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, nil
	case http.StatusNotModified:
		return Document{NotModified: true}, nil
	default:
		return Document{}, fmt.Errorf("unexpected feed response status: %s", resp.Status)
	}
}
