package workflow

import (
	"sort"
	"sync"
	"time"
)

// WorkerStatus is a point-in-time view of one worker.
type WorkerStatus struct {
	Name        string    `json:"name"`
	Phase       string    `json:"phase"`
	Ticks       int       `json:"ticks"`
	Failures    int       `json:"failures"`
	Skips       int       `json:"skips"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// StatusSummary represents lightweight runner diagnostics.
type StatusSummary struct {
	Running       bool           `json:"running"`
	BroadcasterID string         `json:"broadcaster_id,omitempty"`
	PrinterPhase  string         `json:"printer_phase,omitempty"`
	LastTitle     string         `json:"last_title,omitempty"`
	Workers       []WorkerStatus `json:"workers"`
}

// Status returns the latest runner information.
func (r *Runner) Status() StatusSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := StatusSummary{
		Running:       r.running,
		BroadcasterID: r.broadcasterID,
		LastTitle:     r.lastTitle,
	}
	if r.phaseSeen {
		summary.PrinterPhase = string(r.lastPhase)
	}
	for _, w := range r.workers {
		summary.Workers = append(summary.Workers, w.status())
	}
	sort.Slice(summary.Workers, func(i, j int) bool {
		return summary.Workers[i].Name < summary.Workers[j].Name
	})
	return summary
}

// workerState holds per-worker counters, guarded by its own mutex so a slow
// tick in one worker never blocks status reads for the other.
type workerState struct {
	name     string
	interval time.Duration

	mu          sync.Mutex
	phase       string
	ticks       int
	failures    int
	skips       int
	lastSuccess time.Time
	lastError   string
}

func newWorkerState(name string, interval time.Duration) *workerState {
	if interval <= 0 {
		interval = time.Minute
	}
	return &workerState{name: name, interval: interval, phase: phaseIdle}
}

func (w *workerState) setPhase(phase string) {
	w.mu.Lock()
	w.phase = phase
	w.mu.Unlock()
}

func (w *workerState) recordSuccess(now time.Time) {
	w.mu.Lock()
	w.ticks++
	w.lastSuccess = now
	w.lastError = ""
	w.mu.Unlock()
}

// recordFailure returns true when the error message differs from the previous
// failure, so callers can demote repeated identical failures to debug logs.
func (w *workerState) recordFailure(err error) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ticks++
	w.failures++
	message := ""
	if err != nil {
		message = err.Error()
	}
	changed := message != w.lastError
	w.lastError = message
	return changed
}

func (w *workerState) recordSkip() {
	w.mu.Lock()
	w.ticks++
	w.skips++
	w.mu.Unlock()
}

func (w *workerState) status() WorkerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WorkerStatus{
		Name:        w.name,
		Phase:       w.phase,
		Ticks:       w.ticks,
		Failures:    w.failures,
		Skips:       w.skips,
		LastSuccess: w.lastSuccess,
		LastError:   w.lastError,
	}
}
