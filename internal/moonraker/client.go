package moonraker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"printcast/internal/config"
	"printcast/internal/services"
)

// queryObjects is the fixed set of printer objects requested on every fetch.
var queryObjects = []string{
	"print_stats",
	"virtual_sdcard",
	"display_status",
	"extruder",
	"heater_bed",
	"gcode_move",
	"toolhead",
	"heater_fan hotend_fan",
	"output_pin fan0",
	"output_pin fan1",
	"output_pin fan2",
	"temperature_sensor mcu_temp",
	"temperature_sensor chamber_temp",
}

// HTTPDoer describes the HTTP client used for Moonraker queries.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for queries.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithBaseURL overrides the Moonraker base URL (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// Client fetches printer status snapshots from the Moonraker HTTP API.
type Client struct {
	baseURL string
	client  HTTPDoer
}

// NewClient builds a Moonraker client from configuration.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	timeout := 10 * time.Second
	baseURL := ""
	if cfg != nil {
		baseURL = strings.TrimRight(cfg.Moonraker.URL, "/")
		if cfg.Moonraker.RequestTimeout > 0 {
			timeout = time.Duration(cfg.Moonraker.RequestTimeout) * time.Second
		}
	}
	client := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Fetch issues one synchronous query and parses the response into a Snapshot.
// Connection failures surface as transient errors; an unparseable response is
// malformed. An idle machine yields a valid snapshot, not an error. Retries
// are the caller's responsibility.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	query := make(url.Values, len(queryObjects))
	for _, object := range queryObjects {
		query.Set(object, "")
	}
	endpoint := fmt.Sprintf("%s/printer/objects/query?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Snapshot{}, services.Wrap(services.ErrConfiguration, "moonraker", "fetch", "build request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Snapshot{}, services.Wrap(services.ErrTransient, "moonraker", "fetch", "query printer objects", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, services.Wrap(services.ErrTransient, "moonraker", "fetch",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Snapshot{}, services.Wrap(services.ErrTransient, "moonraker", "fetch", "read response", err)
	}

	snapshot, err := parseSnapshot(body)
	if err != nil {
		return Snapshot{}, services.Wrap(services.ErrMalformed, "moonraker", "fetch", "parse response", err)
	}
	return snapshot, nil
}

// parseSnapshot decodes a Moonraker objects/query response body. Individual
// missing objects degrade to absent snapshot fields; only a broken envelope
// is an error.
func parseSnapshot(body []byte) (Snapshot, error) {
	var envelope struct {
		Result *struct {
			Status *statusPayload `json:"status"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Snapshot{}, err
	}
	if envelope.Result == nil || envelope.Result.Status == nil {
		return Snapshot{}, fmt.Errorf("response missing result.status")
	}
	return envelope.Result.Status.snapshot(), nil
}
