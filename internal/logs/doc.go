// Package logs provides file tailing with offset bookkeeping for the CLI and
// daemon diagnostics. A negative offset means "last N lines"; follow mode
// polls for new lines until the wait budget or the context expires.
package logs
