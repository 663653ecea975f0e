// Package api is the outbound HTTP client for the scheduling backend.
// Every call takes a context; failures come back as wrapped errors, with
// ErrUnauthorized singled out because a 401 ends the session rather than
// degrading to cached data.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"orarsync/internal/model"
)

// ErrUnauthorized is returned when the backend rejects the bearer token.
var ErrUnauthorized = errors.New("api: unauthorized")

// Client calls the scheduling backend REST API.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	// clientID identifies this process instance to the backend logs.
	clientID string

	mu    sync.RWMutex
	token string
}

// New creates a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		clientID: uuid.NewString(),
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently installed bearer token, if any.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ClientID returns the per-process instance id sent with every request.
func (c *Client) ClientID() string {
	return c.clientID
}

// do performs one request. A nil body sends no payload; a non-nil out
// decodes the JSON response into it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Client-ID", c.clientID)
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("api: request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// The token is dead; drop it so the caller re-authenticates.
		c.SetToken("")
		return fmt.Errorf("api: %s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode >= 300 {
		detail := readDetail(resp.Body)
		return fmt.Errorf("api: %s %s: %s: %s", method, path, resp.Status, detail)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// readDetail extracts the backend's {"detail": ...} message, falling back
// to the raw body.
func readDetail(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return string(raw)
}

func scopeQuery(sc model.Scope) url.Values {
	q := url.Values{}
	if sc.AcademicYear != 0 {
		q.Set("academic_year", strconv.Itoa(sc.AcademicYear))
	}
	if sc.Semester != "" {
		q.Set("semester", sc.Semester)
	}
	if sc.CycleType != "" {
		q.Set("cycle_type", sc.CycleType)
	}
	return q
}
