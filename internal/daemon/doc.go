// Package daemon composes the telemetry runner, the stream supervisor, and
// the notification service into one background process, and enforces
// single-instance execution with a file lock.
package daemon
