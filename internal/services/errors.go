package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrTransient marks network and upstream failures that the next tick may
	// clear on its own.
	ErrTransient = errors.New("transient failure")
	// ErrMalformed marks telemetry responses that could not be parsed.
	ErrMalformed = errors.New("malformed telemetry")
	// ErrUnauthorized marks an API call rejected with an authorization failure
	// after the forced-refresh retry was spent.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited marks an API call rejected by the platform rate limiter.
	ErrRateLimited = errors.New("rate limited")
	// ErrExhausted marks a publish attempt that ran out of retries.
	ErrExhausted = errors.New("retries exhausted")
	// ErrAuthPermanent marks a rejected refresh token. Recovery requires the
	// operator to re-authorize and seed new credentials.
	ErrAuthPermanent = errors.New("authorization permanently failed")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Permanent reports whether err requires operator intervention rather than a
// retry on the next tick.
func Permanent(err error) bool {
	return errors.Is(err, ErrAuthPermanent) || errors.Is(err, ErrConfiguration)
}

// Retriable reports whether err represents a transient condition that a later
// attempt may clear (timeouts, connection errors, rate limits).
func Retriable(err error) bool {
	if err == nil {
		return false
	}
	if Permanent(err) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, token := range []string{
		"connection refused",
		"connection reset",
		"temporary failure",
		"timeout",
		"deadline exceeded",
	} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
