// Package logging builds the slog loggers used by the daemon and CLI. Console
// output uses a compact single-line handler; the json format is available for
// machine consumption. Component loggers carry a standard "component"
// attribute that the console handler promotes into the message prefix.
package logging
