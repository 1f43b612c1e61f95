package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"printcast/internal/config"
	"printcast/internal/logging"
	"printcast/internal/moonraker"
	"printcast/internal/notifications"
	"printcast/internal/stream"
	"printcast/internal/twitch"
	"printcast/internal/workflow"
)

// Daemon owns the background services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	tokens   *twitch.TokenManager
	runner   *workflow.Runner
	stream   *stream.Supervisor
	devices  *stream.DeviceMonitor
	notifier notifications.Service
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running    bool
	PID        int
	LockPath   string
	LogPath    string
	AuthSeeded bool
	Workflow   workflow.StatusSummary
	Stream     stream.Status
}

// New composes a daemon from configuration. The token manager's permanent
// failure hook and the supervisor's restart hook feed the notifier, so the
// operator hears about conditions that need intervention.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	notifier := notifications.NewService(cfg)

	tokens, err := twitch.NewTokenManager(cfg,
		twitch.WithPermanentFailureHook(func(cause error) {
			if err := notifier.NotifyAuthExpired(context.Background(), cause); err != nil {
				logger.Warn("auth expired notification failed", logging.Error(err))
			}
		}))
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	helix := twitch.NewClient(cfg)
	publisher := twitch.NewPublisher(helix, tokens, logger)
	fetcher := moonraker.NewClient(cfg)
	runner := workflow.NewRunner(cfg, logger, fetcher, publisher, helix, tokens, notifier)

	supervisor := stream.NewSupervisor(cfg, logger,
		stream.WithRestartHook(func(restarts int, cause error) {
			if err := notifier.NotifyStreamRestarted(context.Background(), restarts, cause); err != nil {
				logger.Warn("stream restart notification failed", logging.Error(err))
			}
		}))
	devices := stream.NewDeviceMonitor(cfg, logger, func(string) { supervisor.Kick() })

	lockPath := filepath.Join(cfg.Paths.StateDir, "printcastd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		tokens:   tokens,
		runner:   runner,
		stream:   supervisor,
		devices:  devices,
		notifier: notifier,
		logPath:  filepath.Join(cfg.Paths.LogDir, "printcast.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the background services.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another printcast daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.runner.Start(runCtx); err != nil {
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	d.stream.Start(runCtx)
	if err := d.devices.Start(runCtx); err != nil {
		d.logger.Warn("device monitor unavailable", logging.Error(err))
	}

	d.running.Store(true)
	d.logger.Info("printcast daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.devices.Stop()
	d.stream.Stop()
	d.runner.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("printcast daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// SeedTokens stores a fresh OAuth token pair, clearing any latched permanent
// failure so publishing resumes on the next tick.
func (d *Daemon) SeedTokens(accessToken, refreshToken string) error {
	return d.tokens.Seed(accessToken, refreshToken)
}

// AuthState reports whether credentials are seeded and the install identity.
func (d *Daemon) AuthState() (seeded bool, clientIdentifier string) {
	return d.tokens.Seeded(), d.tokens.ClientIdentifier()
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		LockPath:   d.lockPath,
		LogPath:    d.logPath,
		AuthSeeded: d.tokens.Seeded(),
		Workflow:   d.runner.Status(),
		Stream:     d.stream.Status(),
	}
}
