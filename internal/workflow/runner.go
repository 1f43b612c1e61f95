package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"printcast/internal/config"
	"printcast/internal/logging"
	"printcast/internal/moonraker"
	"printcast/internal/notifications"
	"printcast/internal/twitch"
)

// Fetcher retrieves one telemetry snapshot from the printer.
type Fetcher interface {
	Fetch(ctx context.Context) (moonraker.Snapshot, error)
}

// Publisher delivers one publish job to the platform.
type Publisher interface {
	Publish(ctx context.Context, job twitch.Job) error
}

// IdentityAPI resolves a broadcaster login to its numeric identifier.
type IdentityAPI interface {
	UserID(ctx context.Context, token, login string) (string, error)
}

// TokenSource supplies a bearer token for identity lookups.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RunnerOption configures optional Runner behavior.
type RunnerOption func(*Runner)

// WithClock overrides the time source (used in tests).
func WithClock(clock func() time.Time) RunnerOption {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// Runner coordinates the chat and title workers.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	fetcher   Fetcher
	publisher Publisher
	identity  IdentityAPI
	tokens    TokenSource
	notifier  notifications.Service
	clock     func() time.Time

	idMu sync.Mutex

	mu            sync.RWMutex
	running       bool
	cancel        context.CancelFunc
	broadcasterID string
	lastTitle     string
	lastPhase     moonraker.Phase
	phaseSeen     bool
	workers       map[string]*workerState

	wg sync.WaitGroup
}

// NewRunner constructs a Runner. All collaborators are required except the
// notifier, which defaults to the configured service.
func NewRunner(
	cfg *config.Config,
	logger *slog.Logger,
	fetcher Fetcher,
	publisher Publisher,
	identity IdentityAPI,
	tokens TokenSource,
	notifier notifications.Service,
	opts ...RunnerOption,
) *Runner {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	runner := &Runner{
		cfg:       cfg,
		logger:    logger,
		fetcher:   fetcher,
		publisher: publisher,
		identity:  identity,
		tokens:    tokens,
		notifier:  notifier,
		clock:     time.Now,
		workers:   make(map[string]*workerState),
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Start launches both workers. Each worker publishes immediately and then on
// its configured cadence.
func (r *Runner) Start(ctx context.Context) error {
	if r.fetcher == nil || r.publisher == nil {
		return errors.New("workflow collaborators not configured")
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("workflow already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	workers := []*workerState{
		newWorkerState(workerChat, time.Duration(r.cfg.Workers.ChatInterval)*time.Second),
		newWorkerState(workerTitle, time.Duration(r.cfg.Workers.TitleInterval)*time.Second),
	}
	for _, w := range workers {
		r.workers[w.name] = w
	}
	r.wg.Add(len(workers))
	r.mu.Unlock()

	for _, w := range workers {
		go r.runWorker(runCtx, w)
	}
	return nil
}

// Stop terminates both workers and waits for in-flight ticks to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	cancel()
	r.wg.Wait()
}

func (r *Runner) runWorker(ctx context.Context, w *workerState) {
	defer r.wg.Done()

	logger := logging.NewComponentLogger(r.logger, w.name)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	r.tick(ctx, w, logger)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx, w, logger)
		}
	}
}

// resolveBroadcasterID looks up and caches the numeric broadcaster ID. The
// lookup is mutually exclusive so concurrent worker ticks produce at most one
// upstream call, and it repeats on later ticks until it succeeds once.
func (r *Runner) resolveBroadcasterID(ctx context.Context) (string, error) {
	r.idMu.Lock()
	defer r.idMu.Unlock()

	r.mu.RLock()
	id := r.broadcasterID
	r.mu.RUnlock()
	if id != "" {
		return id, nil
	}

	token, err := r.tokens.Token(ctx)
	if err != nil {
		return "", err
	}
	id, err = r.identity.UserID(ctx, token, r.cfg.Twitch.BroadcasterLogin)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.broadcasterID = id
	r.mu.Unlock()
	return id, nil
}
