// Package feedsource polls the upstream platform for an owner's dynamics
// and live status.
package feedsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"bilidyn/internal/model"
)

const (
	dynamicsURL = "https://api.bilibili.com/x/polymer/web-dynamic/v1/feed/space?host_mid=%d"
	liveURL     = "https://api.live.bilibili.com/room/v1/Room/getRoomInfoOld?mid=%d"

	userAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	maxBodySize = 10 * 1024 * 1024
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches dynamics batches and live status from the upstream API.
// The cookie is passed through verbatim; session handling is the
// operator's concern.
type Client struct {
	client HTTPClient
	cookie string
}

// New creates a Client with the given HTTP client and cookie header.
func New(client HTTPClient, cookie string) *Client {
	return &Client{client: client, cookie: cookie}
}

// Dynamics returns an owner's latest dynamics, newest first, in the order
// the upstream delivers them.
func (c *Client) Dynamics(ctx context.Context, ownerID int64) ([]*model.Dynamic, error) {
	var data struct {
		Items []wireItem `json:"items"`
	}
	if err := c.get(ctx, fmt.Sprintf(dynamicsURL, ownerID), &data); err != nil {
		return nil, fmt.Errorf("fetch dynamics for %d: %w", ownerID, err)
	}

	items := make([]*model.Dynamic, 0, len(data.Items))
	for i := range data.Items {
		if item := data.Items[i].toModel(); item != nil {
			items = append(items, item)
		}
	}
	return items, nil
}

// LiveStatus reports whether the owner is currently broadcasting.
func (c *Client) LiveStatus(ctx context.Context, ownerID int64) (bool, error) {
	var data struct {
		LiveStatus int `json:"liveStatus"`
	}
	if err := c.get(ctx, fmt.Sprintf(liveURL, ownerID), &data); err != nil {
		return false, fmt.Errorf("fetch live status for %d: %w", ownerID, err)
	}
	return data.LiveStatus == 1, nil
}

// get performs one API request and decodes the data field of the
// response envelope into out.
func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	var env struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("parse envelope: %w", err)
	}
	if env.Code != 0 {
		return fmt.Errorf("api error %d: %s", env.Code, env.Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("parse data: %w", err)
	}
	return nil
}
