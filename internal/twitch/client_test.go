package twitch_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"printcast/internal/services"
	"printcast/internal/twitch"
)

func helixClient(t *testing.T, handler http.HandlerFunc) *twitch.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := testConfig(t)
	return twitch.NewClient(cfg,
		twitch.WithHelixURL(server.URL),
		twitch.WithHTTPClient(server.Client()))
}

func TestSendChatMessageRequestShape(t *testing.T) {
	client := helixClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/messages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("Client-Id"); got != "cid" {
			t.Errorf("client id = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["broadcaster_id"] != "42" || body["sender_id"] != "42" || body["message"] != "hello" {
			t.Errorf("unexpected body: %v", body)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.SendChatMessage(context.Background(), "tok", "42", "42", "hello"); err != nil {
		t.Fatalf("send chat message: %v", err)
	}
}

func TestUpdateChannelTitleRequestShape(t *testing.T) {
	client := helixClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/channels" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("broadcaster_id"); got != "42" {
			t.Errorf("broadcaster_id = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["title"] != "Printing widget.gcode" {
			t.Errorf("title = %q", body["title"])
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.UpdateChannelTitle(context.Background(), "tok", "42", "Printing widget.gcode"); err != nil {
		t.Fatalf("update title: %v", err)
	}
}

func TestUserIDResolvesLogin(t *testing.T) {
	client := helixClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" || r.URL.Query().Get("login") != "cam" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"12345","login":"cam"}]}`))
	})

	id, err := client.UserID(context.Background(), "tok", "cam")
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if id != "12345" {
		t.Fatalf("id = %q", id)
	}
}

func TestUserIDUnknownLogin(t *testing.T) {
	client := helixClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	if _, err := client.UserID(context.Background(), "tok", "nobody"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCallClassifiesStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: services.ErrUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests, want: services.ErrRateLimited},
		{name: "server error", status: http.StatusInternalServerError, want: services.ErrTransient},
		{name: "bad request", status: http.StatusBadRequest, want: services.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := helixClient(t, func(w http.ResponseWriter, r *http.Request) {
				for key, values := range tt.header {
					w.Header()[key] = values
				}
				w.WriteHeader(tt.status)
			})

			err := client.SendChatMessage(context.Background(), "tok", "42", "42", "hi")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRateLimitCarriesRetryAfter(t *testing.T) {
	client := helixClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := client.SendChatMessage(context.Background(), "tok", "42", "42", "hi")
	var rateErr *twitch.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if rateErr.RetryAfter != 7*time.Second {
		t.Fatalf("retry after = %s", rateErr.RetryAfter)
	}
}
