package ipc

import "time"

// StartRequest triggers daemon startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon's background services.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// WorkerStatus describes one publishing worker.
type WorkerStatus struct {
	Name        string    `json:"name"`
	Phase       string    `json:"phase"`
	Ticks       int       `json:"ticks"`
	Failures    int       `json:"failures"`
	Skips       int       `json:"skips"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// StreamStatus describes the ffmpeg supervisor.
type StreamStatus struct {
	Enabled   bool      `json:"enabled"`
	Running   bool      `json:"running"`
	Restarts  int       `json:"restarts"`
	LastError string    `json:"last_error,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	LockPath      string         `json:"lock_path"`
	LogPath       string         `json:"log_path"`
	AuthSeeded    bool           `json:"auth_seeded"`
	BroadcasterID string         `json:"broadcaster_id,omitempty"`
	PrinterPhase  string         `json:"printer_phase,omitempty"`
	LastTitle     string         `json:"last_title,omitempty"`
	Workers       []WorkerStatus `json:"workers"`
	Stream        StreamStatus   `json:"stream"`
}

// AuthSeedRequest stores a fresh OAuth token pair.
type AuthSeedRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthSeedResponse reports seed outcome.
type AuthSeedResponse struct {
	Seeded  bool   `json:"seeded"`
	Message string `json:"message"`
}

// AuthStatusRequest fetches credential state.
type AuthStatusRequest struct{}

// AuthStatusResponse reports credential state.
type AuthStatusResponse struct {
	Seeded           bool   `json:"seeded"`
	ClientIdentifier string `json:"client_identifier"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
