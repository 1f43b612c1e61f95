// Package services defines the shared error taxonomy used across the
// telemetry pipeline. Components wrap failures with sentinel markers so the
// workers and the daemon can classify them without inspecting message text.
package services
