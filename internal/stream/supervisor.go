package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"printcast/internal/config"
	"printcast/internal/logging"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Status describes the supervisor state for IPC status reporting.
type Status struct {
	Enabled   bool      `json:"enabled"`
	Running   bool      `json:"running"`
	Restarts  int       `json:"restarts"`
	LastError string    `json:"last_error,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

const initialRestartWait = 2 * time.Second

// Option configures the supervisor.
type Option func(*Supervisor)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(s *Supervisor) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// WithRestartHook registers a callback invoked before each restart attempt.
func WithRestartHook(hook func(restarts int, cause error)) Option {
	return func(s *Supervisor) {
		s.onRestart = hook
	}
}

// Supervisor keeps one ffmpeg process alive while the daemon runs. An exit
// before the configured minimum uptime doubles the restart wait up to the
// configured ceiling; a long-lived process resets the wait.
type Supervisor struct {
	cfg       *config.Config
	logger    *slog.Logger
	exec      Executor
	onRestart func(restarts int, cause error)

	mu        sync.Mutex
	running   bool
	processUp bool
	restarts  int
	lastError string
	startedAt time.Time
	kick      chan struct{}
	done      chan struct{}
	cancel    context.CancelFunc
}

// NewSupervisor builds a Supervisor from configuration.
func NewSupervisor(cfg *config.Config, logger *slog.Logger, opts ...Option) *Supervisor {
	sup := &Supervisor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "stream"),
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(sup)
	}
	return sup
}

// Start launches the supervision loop. It is a no-op when streaming is
// disabled in configuration or the supervisor is already running.
func (s *Supervisor) Start(ctx context.Context) {
	if s == nil || !s.cfg.Stream.Enabled {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.kick = make(chan struct{}, 1)
	s.done = make(chan struct{})
	s.running = true

	go s.loop(runCtx)

	s.logger.Info("stream supervisor started",
		logging.String(logging.FieldEventType, "stream_started"),
		logging.String("device", s.cfg.Stream.Device))
}

// Stop terminates the ffmpeg process and the supervision loop, blocking
// until the loop has exited.
func (s *Supervisor) Stop() {
	if s == nil {
		return
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.running = false
	s.processUp = false
	s.mu.Unlock()

	s.logger.Info("stream supervisor stopped",
		logging.String(logging.FieldEventType, "stream_stopped"))
}

// Kick skips any pending restart backoff. The device monitor calls it when
// the capture device reappears.
func (s *Supervisor) Kick() {
	s.mu.Lock()
	kick := s.kick
	s.mu.Unlock()
	if kick == nil {
		return
	}
	select {
	case kick <- struct{}{}:
	default:
	}
}

// Status reports the current supervision state.
func (s *Supervisor) Status() Status {
	if s == nil {
		return Status{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	status := Status{
		Enabled:   s.cfg.Stream.Enabled,
		Running:   s.processUp,
		Restarts:  s.restarts,
		LastError: s.lastError,
	}
	if s.processUp {
		status.StartedAt = s.startedAt
	}
	return status
}

func (s *Supervisor) loop(ctx context.Context) {
	defer close(s.done)

	wait := initialRestartWait
	maxWait := time.Duration(s.cfg.Stream.MaxRestartWait) * time.Second
	if maxWait < initialRestartWait {
		maxWait = initialRestartWait
	}
	minUptime := time.Duration(s.cfg.Stream.MinUptime) * time.Second

	for {
		started := time.Now()
		s.mu.Lock()
		s.processUp = true
		s.startedAt = started
		s.mu.Unlock()

		err := s.exec.Run(ctx, s.cfg.FFmpegBinary(), s.args(), s.forwardOutput)
		uptime := time.Since(started)

		s.mu.Lock()
		s.processUp = false
		if err != nil {
			s.lastError = err.Error()
		} else {
			s.lastError = ""
		}
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}

		if uptime >= minUptime {
			wait = initialRestartWait
		} else if wait < maxWait {
			wait *= 2
			if wait > maxWait {
				wait = maxWait
			}
		}

		s.mu.Lock()
		s.restarts++
		restarts := s.restarts
		s.mu.Unlock()

		s.logger.Warn("ffmpeg exited, restarting",
			logging.Error(err),
			logging.String(logging.FieldEventType, "stream_restart"),
			logging.Duration("uptime", uptime),
			logging.Duration("wait", wait),
			logging.Int("restarts", restarts),
			logging.String(logging.FieldImpact, "stream offline until restart succeeds"))

		if s.onRestart != nil {
			s.onRestart(restarts, err)
		}

		if !s.waitForRestart(ctx, wait) {
			return
		}
	}
}

// waitForRestart sleeps for the backoff period, returning early when the
// device monitor kicks the supervisor. It reports false on shutdown.
func (s *Supervisor) waitForRestart(ctx context.Context, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-s.kick:
		s.logger.Info("restart backoff skipped",
			logging.String(logging.FieldEventType, "stream_kicked"))
		return true
	case <-timer.C:
		return true
	}
}

// args builds the ffmpeg command line. The input is copied without
// re-encoding, so the camera must produce a codec the ingest accepts.
func (s *Supervisor) args() []string {
	stream := s.cfg.Stream
	ingest := strings.TrimRight(stream.IngestURL, "/") + "/" + stream.StreamKey
	return []string{
		"-hide_banner",
		"-loglevel", "info",
		"-stats_period", strconv.Itoa(stream.StatsPeriod),
		"-f", "v4l2",
		"-fflags", "+genpts",
		"-video_size", stream.VideoSize,
		"-input_format", stream.InputFormat,
		"-i", stream.Device,
		"-c", "copy",
		"-f", "flv",
		ingest,
	}
}

func (s *Supervisor) forwardOutput(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	s.logger.Debug("ffmpeg", logging.String("line", line))
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
		for scanner.Scan() {
			if onOutput != nil {
				onOutput(scanner.Text())
			}
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
