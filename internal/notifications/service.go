package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"printcast/internal/config"
)

const userAgent = "Printcast-Go/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyAuthExpired(ctx context.Context, cause error) error
	NotifyStreamRestarted(ctx context.Context, restarts int, cause error) error
	NotifyPrintComplete(ctx context.Context, filename string) error
	NotifyPrinterError(ctx context.Context, message string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyAuthExpired(ctx context.Context, cause error) error {
	message := "🔑 Twitch authorization expired. Run 'printcast auth seed' with a fresh token pair."
	if cause != nil {
		message = fmt.Sprintf("%s\nCause: %s", message, strings.TrimSpace(cause.Error()))
	}
	data := payload{
		title:    "Printcast - Authorization Expired",
		message:  message,
		tags:     []string{"printcast", "auth", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStreamRestarted(ctx context.Context, restarts int, cause error) error {
	message := fmt.Sprintf("📹 Stream process restarted (restart %d)", restarts)
	if cause != nil {
		message = fmt.Sprintf("%s\nCause: %s", message, strings.TrimSpace(cause.Error()))
	}
	data := payload{
		title:   "Printcast - Stream Restarted",
		message: message,
		tags:    []string{"printcast", "stream", "restarted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPrintComplete(ctx context.Context, filename string) error {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = "print"
	}
	data := payload{
		title:    "Printcast - Print Complete",
		message:  fmt.Sprintf("✅ Finished: %s", filename),
		tags:     []string{"printcast", "print", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPrinterError(ctx context.Context, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "unknown"
	}
	data := payload{
		title:    "Printcast - Printer Error",
		message:  fmt.Sprintf("⚠️ Printer reported an error: %s", message),
		tags:     []string{"printcast", "printer", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Printcast - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"printcast", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyAuthExpired(context.Context, error) error          { return nil }
func (noopService) NotifyStreamRestarted(context.Context, int, error) error { return nil }
func (noopService) NotifyPrintComplete(context.Context, string) error       { return nil }
func (noopService) NotifyPrinterError(context.Context, string) error        { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
