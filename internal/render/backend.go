package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxArtifactSize bounds how much of a backend response is read.
const maxArtifactSize = 20 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPBackend renders cards through an HTML-to-image service reachable
// over HTTP: it posts template, data and options and receives the image
// bytes back.
type HTTPBackend struct {
	client HTTPClient
	url    string
}

// NewHTTPBackend creates a backend talking to the render service at url.
func NewHTTPBackend(client HTTPClient, url string) *HTTPBackend {
	return &HTTPBackend{client: client, url: url}
}

type renderRequest struct {
	Template string  `json:"tmpl"`
	Data     *Model  `json:"data"`
	Options  Options `json:"options"`
}

// Render posts one render request and returns the raw image bytes.
func (b *HTTPBackend) Render(ctx context.Context, tmpl string, data *Model, opts Options) ([]byte, error) {
	payload, err := json.Marshal(renderRequest{Template: tmpl, Data: data, Options: opts})
	if err != nil {
		return nil, fmt.Errorf("encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	artifact, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize))
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return artifact, nil
}
