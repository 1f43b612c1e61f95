package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"printcast/internal/config"
	"printcast/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPrintComplete(context.Background(), "benchy.gcode"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectBody     string
		expectTags     string
		expectPriority string
	}{
		{
			name: "auth expired",
			notify: func(svc notifications.Service) error {
				return svc.NotifyAuthExpired(context.Background(), errors.New("refresh token rejected"))
			},
			expectTitle:    "Printcast - Authorization Expired",
			expectBody:     "Cause: refresh token rejected",
			expectTags:     "printcast,auth,alert",
			expectPriority: "high",
		},
		{
			name: "stream restarted",
			notify: func(svc notifications.Service) error {
				return svc.NotifyStreamRestarted(context.Background(), 3, errors.New("exit status 1"))
			},
			expectTitle: "Printcast - Stream Restarted",
			expectBody:  "restart 3",
			expectTags:  "printcast,stream,restarted",
		},
		{
			name: "print complete",
			notify: func(svc notifications.Service) error {
				return svc.NotifyPrintComplete(context.Background(), "benchy.gcode")
			},
			expectTitle:    "Printcast - Print Complete",
			expectBody:     "benchy.gcode",
			expectTags:     "printcast,print,completed",
			expectPriority: "high",
		},
		{
			name: "printer error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyPrinterError(context.Background(), "Heater extruder not heating")
			},
			expectTitle:    "Printcast - Printer Error",
			expectBody:     "Heater extruder not heating",
			expectTags:     "printcast,printer,alert",
			expectPriority: "high",
		},
		{
			name: "test notification",
			notify: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Printcast - Test",
			expectBody:     "test",
			expectTags:     "printcast,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			svc := notifications.NewService(&cfg)

			if err := tc.notify(svc); err != nil {
				t.Fatalf("notify: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Errorf("title = %q, want %q", captured.title, tc.expectTitle)
			}
			if !strings.Contains(captured.body, tc.expectBody) {
				t.Errorf("body %q does not contain %q", captured.body, tc.expectBody)
			}
			if captured.tags != tc.expectTags {
				t.Errorf("tags = %q, want %q", captured.tags, tc.expectTags)
			}
			if captured.priority != tc.expectPriority {
				t.Errorf("priority = %q, want %q", captured.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceSurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
