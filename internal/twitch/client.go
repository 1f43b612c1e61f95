package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"printcast/internal/config"
	"printcast/internal/services"
)

// API is the subset of the Helix API consumed by the publisher.
type API interface {
	SendChatMessage(ctx context.Context, token, broadcasterID, senderID, message string) error
	UpdateChannelTitle(ctx context.Context, token, broadcasterID, title string) error
	UserID(ctx context.Context, token, login string) (string, error)
}

// RateLimitError carries the platform's requested backoff on a 429 response.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// Is lets errors.Is match RateLimitError against the shared sentinel.
func (e *RateLimitError) Is(target error) bool {
	return target == services.ErrRateLimited
}

// ClientOption customises Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for Helix calls.
func WithHTTPClient(client HTTPDoer) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithHelixURL overrides the Helix base URL (used in tests).
func WithHelixURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// Client issues requests against the Twitch Helix API. Tokens are supplied by
// the caller so the token manager stays the single owner of credentials.
type Client struct {
	baseURL    string
	clientID   string
	httpClient HTTPDoer
}

// NewClient builds a Helix client from configuration.
func NewClient(cfg *config.Config, opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if cfg != nil {
		client.baseURL = cfg.Twitch.HelixURL
		client.clientID = cfg.Twitch.ClientID
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// SendChatMessage posts a message to the broadcaster's chat.
func (c *Client) SendChatMessage(ctx context.Context, token, broadcasterID, senderID, message string) error {
	payload := map[string]string{
		"broadcaster_id": broadcasterID,
		"sender_id":      senderID,
		"message":        message,
	}
	return c.call(ctx, token, http.MethodPost, "/chat/messages", "", payload, nil)
}

// UpdateChannelTitle patches the broadcaster's stream title.
func (c *Client) UpdateChannelTitle(ctx context.Context, token, broadcasterID, title string) error {
	query := url.Values{"broadcaster_id": {broadcasterID}}.Encode()
	payload := map[string]string{"title": title}
	return c.call(ctx, token, http.MethodPatch, "/channels", query, payload, nil)
}

// UserID resolves a login name to the numeric broadcaster identifier.
func (c *Client) UserID(ctx context.Context, token, login string) (string, error) {
	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	query := url.Values{"login": {login}}.Encode()
	if err := c.call(ctx, token, http.MethodGet, "/users", query, nil, &result); err != nil {
		return "", err
	}
	if len(result.Data) == 0 {
		return "", services.Wrap(services.ErrConfiguration, "twitch", "users",
			fmt.Sprintf("no user found for login %q", login), nil)
	}
	return result.Data[0].ID, nil
}

func (c *Client) call(ctx context.Context, token, method, path, query string, payload, result any) error {
	endpoint := c.baseURL + path
	if query != "" {
		endpoint += "?" + query
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "twitch", "helix", "encode request", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "twitch", "helix", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", c.clientID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "twitch", "helix", "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if result != nil {
			if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(result); err != nil {
				return services.Wrap(services.ErrTransient, "twitch", "helix", "decode response", err)
			}
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return services.Wrap(services.ErrUnauthorized, "twitch", "helix",
			fmt.Sprintf("%s %s rejected", method, path), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		return services.Wrap(services.ErrTransient, "twitch", "helix",
			fmt.Sprintf("%s %s returned status %d", method, path, resp.StatusCode), nil)
	}
}

// parseRetryAfter reads a Retry-After header in seconds. Zero means the
// platform gave no usable hint and the caller applies its default.
func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
