package twitch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"printcast/internal/logging"
	"printcast/internal/services"
)

// JobKind identifies the outbound action a publish job performs.
type JobKind string

const (
	JobChatMessage JobKind = "chat_message"
	JobTitleUpdate JobKind = "title_update"
)

// Job describes one outbound publish action. Jobs are created per scheduler
// tick and consumed exactly once.
type Job struct {
	Kind          JobKind
	Text          string
	BroadcasterID string
}

// TokenProvider is the credential surface the publisher depends on.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	MarkUnauthorized()
}

const (
	maxPublishAttempts = 3
	defaultRetryAfter  = 2 * time.Second
	maxRetryAfter      = 60 * time.Second
)

// PublisherOption customises Publisher construction.
type PublisherOption func(*Publisher)

// WithSleep overrides the backoff sleeper (used in tests).
func WithSleep(sleep func(context.Context, time.Duration) error) PublisherOption {
	return func(p *Publisher) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// Publisher sends publish jobs to the Helix API with bounded retries. An
// authorization failure forces one token refresh and one retry; rate limits
// back off per the platform's Retry-After hint up to the attempt bound.
type Publisher struct {
	api    API
	tokens TokenProvider
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewPublisher builds a Publisher.
func NewPublisher(api API, tokens TokenProvider, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	pub := &Publisher{
		api:    api,
		tokens: tokens,
		logger: logging.NewComponentLogger(logger, "publisher"),
		sleep:  sleepWithContext,
	}
	for _, opt := range opts {
		opt(pub)
	}
	return pub
}

// Publish executes one job. The returned error is classified with the shared
// taxonomy; callers abandon the tick on failure and rely on the next tick.
func (p *Publisher) Publish(ctx context.Context, job Job) error {
	refreshed := false

	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		token, err := p.tokens.Token(ctx)
		if err != nil {
			return err
		}

		err = p.send(ctx, token, job)
		if err == nil {
			if attempt > 1 {
				p.logger.Debug("publish succeeded after retry",
					logging.String("kind", string(job.Kind)),
					logging.Int("attempt", attempt))
			}
			return nil
		}

		switch {
		case errors.Is(err, services.ErrUnauthorized):
			if refreshed {
				// One forced refresh and one retry, never more.
				return err
			}
			refreshed = true
			p.tokens.MarkUnauthorized()
			p.logger.Debug("token rejected, refreshing once",
				logging.String("kind", string(job.Kind)))

		case errors.Is(err, services.ErrRateLimited):
			if attempt == maxPublishAttempts {
				return services.Wrap(services.ErrExhausted, "twitch", "publish",
					string(job.Kind)+" rate limit retries exhausted", err)
			}
			wait := retryAfter(err)
			p.logger.Debug("rate limited, backing off",
				logging.String("kind", string(job.Kind)),
				logging.Duration("wait", wait),
				logging.Int("attempt", attempt))
			if sleepErr := p.sleep(ctx, wait); sleepErr != nil {
				return services.Wrap(services.ErrTransient, "twitch", "publish", "backoff interrupted", sleepErr)
			}

		default:
			return err
		}
	}

	return services.Wrap(services.ErrExhausted, "twitch", "publish", string(job.Kind)+" retries exhausted", nil)
}

func (p *Publisher) send(ctx context.Context, token string, job Job) error {
	switch job.Kind {
	case JobChatMessage:
		return p.api.SendChatMessage(ctx, token, job.BroadcasterID, job.BroadcasterID, job.Text)
	case JobTitleUpdate:
		return p.api.UpdateChannelTitle(ctx, token, job.BroadcasterID, job.Text)
	default:
		return services.Wrap(services.ErrConfiguration, "twitch", "publish",
			"unknown job kind "+string(job.Kind), nil)
	}
}

func retryAfter(err error) time.Duration {
	wait := defaultRetryAfter
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
		wait = rateErr.RetryAfter
	}
	if wait > maxRetryAfter {
		wait = maxRetryAfter
	}
	return wait
}

// sleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
