package twitch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"printcast/internal/logging"
	"printcast/internal/services"
	"printcast/internal/twitch"
)

// fakeAPI scripts a sequence of per-call errors; nil means success.
type fakeAPI struct {
	results []error
	calls   []string
}

func (f *fakeAPI) next(call string) error {
	f.calls = append(f.calls, call)
	if len(f.results) == 0 {
		return nil
	}
	err := f.results[0]
	f.results = f.results[1:]
	return err
}

func (f *fakeAPI) SendChatMessage(_ context.Context, _, _, _, _ string) error {
	return f.next("chat")
}

func (f *fakeAPI) UpdateChannelTitle(_ context.Context, _, _, _ string) error {
	return f.next("title")
}

func (f *fakeAPI) UserID(_ context.Context, _, _ string) (string, error) {
	return "42", f.next("users")
}

type fakeTokens struct {
	token        string
	tokenErr     error
	tokenCalls   int
	refreshCalls int
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	f.tokenCalls++
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return f.token, nil
}

func (f *fakeTokens) MarkUnauthorized() {
	f.refreshCalls++
}

func unauthorized() error {
	return services.Wrap(services.ErrUnauthorized, "twitch", "helix", "rejected", nil)
}

func TestPublishChatSucceeds(t *testing.T) {
	api := &fakeAPI{}
	tokens := &fakeTokens{token: "tok"}
	pub := twitch.NewPublisher(api, tokens, logging.NewNop())

	err := pub.Publish(context.Background(), twitch.Job{
		Kind:          twitch.JobChatMessage,
		Text:          "hello",
		BroadcasterID: "42",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(api.calls) != 1 || api.calls[0] != "chat" {
		t.Fatalf("unexpected calls: %v", api.calls)
	}
}

func TestPublishRetriesOnceAfterUnauthorized(t *testing.T) {
	api := &fakeAPI{results: []error{unauthorized(), nil}}
	tokens := &fakeTokens{token: "tok"}
	pub := twitch.NewPublisher(api, tokens, logging.NewNop())

	err := pub.Publish(context.Background(), twitch.Job{Kind: twitch.JobTitleUpdate, BroadcasterID: "42"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if tokens.refreshCalls != 1 {
		t.Fatalf("expected exactly one forced refresh, got %d", tokens.refreshCalls)
	}
	if len(api.calls) != 2 {
		t.Fatalf("expected one retry, got %d calls", len(api.calls))
	}
}

func TestPublishGivesUpAfterSecondUnauthorized(t *testing.T) {
	api := &fakeAPI{results: []error{unauthorized(), unauthorized()}}
	tokens := &fakeTokens{token: "tok"}
	pub := twitch.NewPublisher(api, tokens, logging.NewNop())

	err := pub.Publish(context.Background(), twitch.Job{Kind: twitch.JobChatMessage, BroadcasterID: "42"})
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if tokens.refreshCalls != 1 {
		t.Fatalf("expected exactly one forced refresh, got %d", tokens.refreshCalls)
	}
	if len(api.calls) != 2 {
		t.Fatalf("expected exactly two send attempts, got %d", len(api.calls))
	}
}

func TestPublishBacksOffOnRateLimit(t *testing.T) {
	api := &fakeAPI{results: []error{
		&twitch.RateLimitError{RetryAfter: 5 * time.Second},
		nil,
	}}
	tokens := &fakeTokens{token: "tok"}

	var slept []time.Duration
	pub := twitch.NewPublisher(api, tokens, logging.NewNop(),
		twitch.WithSleep(func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}))

	err := pub.Publish(context.Background(), twitch.Job{Kind: twitch.JobChatMessage, BroadcasterID: "42"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(slept) != 1 || slept[0] != 5*time.Second {
		t.Fatalf("unexpected backoff waits: %v", slept)
	}
}

func TestPublishExhaustsRateLimitRetries(t *testing.T) {
	api := &fakeAPI{results: []error{
		&twitch.RateLimitError{},
		&twitch.RateLimitError{RetryAfter: 3 * time.Second},
		&twitch.RateLimitError{},
	}}
	tokens := &fakeTokens{token: "tok"}

	var slept []time.Duration
	pub := twitch.NewPublisher(api, tokens, logging.NewNop(),
		twitch.WithSleep(func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}))

	err := pub.Publish(context.Background(), twitch.Job{Kind: twitch.JobTitleUpdate, BroadcasterID: "42"})
	if !errors.Is(err, services.ErrExhausted) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
	if len(api.calls) != 3 {
		t.Fatalf("expected three attempts, got %d", len(api.calls))
	}
	// First wait falls back to the default, the second honours the hint.
	want := []time.Duration{2 * time.Second, 3 * time.Second}
	if len(slept) != len(want) || slept[0] != want[0] || slept[1] != want[1] {
		t.Fatalf("unexpected backoff waits: %v", slept)
	}
	if tokens.refreshCalls != 0 {
		t.Fatalf("rate limiting must not force a refresh, got %d", tokens.refreshCalls)
	}
}

func TestPublishPropagatesTokenFailure(t *testing.T) {
	tokens := &fakeTokens{tokenErr: services.Wrap(services.ErrAuthPermanent, "twitch", "refresh", "latched", nil)}
	api := &fakeAPI{}
	pub := twitch.NewPublisher(api, tokens, logging.NewNop())

	err := pub.Publish(context.Background(), twitch.Job{Kind: twitch.JobChatMessage, BroadcasterID: "42"})
	if !errors.Is(err, services.ErrAuthPermanent) {
		t.Fatalf("expected permanent auth error, got %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("expected no send attempts, got %d", len(api.calls))
	}
}

func TestPublishRejectsUnknownJobKind(t *testing.T) {
	pub := twitch.NewPublisher(&fakeAPI{}, &fakeTokens{token: "tok"}, logging.NewNop())

	err := pub.Publish(context.Background(), twitch.Job{Kind: "bogus", BroadcasterID: "42"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
