package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrEmptyDownload = errors.New("downloaded video file is empty")

// DownloadStatusError is returned when the artifact transfer does not succeed.
type DownloadStatusError struct {
	StatusCode int
	Message    string
}

func (e *DownloadStatusError) Error() string {
	return fmt.Sprintf("failed to download video: status %d: %s", e.StatusCode, e.Message)
}

// Downloader fetches generated artifacts over URLs authenticated with a
// "key" query parameter.
type Downloader struct {
	APIKey string
	Client *http.Client
}

// AuthenticatedURL appends the credential to uri, keeping any query it already has.
func AuthenticatedURL(uri, apiKey string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid download uri: %w", err)
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("key", apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (d *Downloader) Fetch(ctx context.Context, uri string) (*Artifact, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	target, err := AuthenticatedURL(uri, d.APIKey)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, &DownloadStatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyDownload
	}

	mimeType := resp.Header.Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(data).String()
	}
	return &Artifact{Data: data, MIMEType: mimeType}, nil
}
