package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"printcast/internal/logging"
	"printcast/internal/moonraker"
	"printcast/internal/services"
	"printcast/internal/summary"
	"printcast/internal/twitch"
)

const (
	workerChat  = "chat"
	workerTitle = "title"
)

// Worker tick phases, reported through Status for diagnostics.
const (
	phaseIdle        = "idle"
	phaseFetching    = "fetching"
	phaseSummarizing = "summarizing"
	phasePublishing  = "publishing"
)

// tick runs one fetch-summarize-publish cycle for a worker. Every failure
// abandons the tick; the next tick starts from a fresh snapshot.
func (r *Runner) tick(ctx context.Context, w *workerState, logger *slog.Logger) {
	tickCtx := ctx
	if timeout := time.Duration(r.cfg.Workers.TickTimeout) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer w.setPhase(phaseIdle)

	w.setPhase(phaseFetching)
	snap, err := r.fetcher.Fetch(tickCtx)
	if err != nil {
		attrs := logging.Args(
			logging.Error(err),
			logging.String(logging.FieldEventType, "fetch_failed"),
			logging.Bool("retriable", services.Retriable(err)),
			logging.String(logging.FieldImpact, "stale status until next tick"))
		if w.recordFailure(err) {
			logger.Warn("telemetry fetch failed, skipping tick", attrs...)
		} else {
			logger.Debug("telemetry fetch failed again, skipping tick", attrs...)
		}
		return
	}

	w.setPhase(phaseSummarizing)
	chatText, titleText := summary.Summarize(snap, r.clock())

	text := chatText
	kind := twitch.JobChatMessage
	if w.name == workerTitle {
		text = titleText
		kind = twitch.JobTitleUpdate
		if r.titleUnchanged(text) {
			w.recordSkip()
			logger.Debug("title unchanged, skipping update")
			r.observePhase(tickCtx, snap, logger)
			return
		}
	}

	broadcasterID, err := r.resolveBroadcasterID(tickCtx)
	if err != nil {
		w.recordFailure(err)
		r.logPublishFailure(logger, "broadcaster lookup failed", err)
		return
	}

	w.setPhase(phasePublishing)
	job := twitch.Job{Kind: kind, Text: text, BroadcasterID: broadcasterID}
	if err := r.publisher.Publish(tickCtx, job); err != nil {
		w.recordFailure(err)
		r.logPublishFailure(logger, "publish failed, skipping tick", err)
		return
	}

	w.recordSuccess(r.clock())
	if w.name == workerTitle {
		r.setLastTitle(text)
	}
	r.observePhase(tickCtx, snap, logger)
}

func (r *Runner) logPublishFailure(logger *slog.Logger, message string, err error) {
	if errors.Is(err, services.ErrAuthPermanent) {
		logger.Error(message,
			logging.Error(err),
			logging.String(logging.FieldEventType, "publish_failed"),
			logging.String(logging.FieldErrorHint, "re-seed credentials with 'printcast auth seed'"),
			logging.String(logging.FieldImpact, "publishing halted until re-authorization"))
		return
	}
	logger.Warn(message,
		logging.Error(err),
		logging.String(logging.FieldEventType, "publish_failed"),
		logging.Bool("retriable", services.Retriable(err)),
		logging.String(logging.FieldImpact, "stale status until next tick"))
}

func (r *Runner) titleUnchanged(title string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return title != "" && title == r.lastTitle
}

func (r *Runner) setLastTitle(title string) {
	r.mu.Lock()
	r.lastTitle = title
	r.mu.Unlock()
}

// observePhase tracks phase transitions across ticks and notifies the
// operator when a print finishes or the printer reports an error. Both
// workers observe; the first to see a transition claims it.
func (r *Runner) observePhase(ctx context.Context, snap moonraker.Snapshot, logger *slog.Logger) {
	r.mu.Lock()
	previous := r.lastPhase
	seen := r.phaseSeen
	r.lastPhase = snap.Phase
	r.phaseSeen = true
	r.mu.Unlock()

	if !seen || previous == snap.Phase {
		return
	}

	switch snap.Phase {
	case moonraker.PhaseComplete:
		if previous != moonraker.PhasePrinting && previous != moonraker.PhasePaused {
			return
		}
		if err := r.notifier.NotifyPrintComplete(ctx, snap.Filename); err != nil {
			logger.Warn("print complete notification failed", logging.Error(err))
		}
	case moonraker.PhaseError:
		if err := r.notifier.NotifyPrinterError(ctx, snap.ErrorMessage); err != nil {
			logger.Warn("printer error notification failed", logging.Error(err))
		}
	}
}
