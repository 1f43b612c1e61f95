package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"printcast/internal/services"
)

func TestWrapPreservesMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrTransient, "moonraker", "fetch", "query failed", base)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "twitch", "publish", "unexpected status", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
}

func TestPermanent(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{services.Wrap(services.ErrAuthPermanent, "twitch", "refresh", "token rejected", nil), true},
		{services.ErrConfiguration, true},
		{services.Wrap(services.ErrTransient, "twitch", "refresh", "", nil), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := services.Permanent(tc.err); got != tc.want {
			t.Fatalf("Permanent(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestRetriable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient marker", services.Wrap(services.ErrTransient, "moonraker", "fetch", "", nil), true},
		{"rate limited", services.ErrRateLimited, true},
		{"deadline", context.DeadlineExceeded, true},
		{"connection refused text", fmt.Errorf("dial tcp: connection refused"), true},
		{"permanent beats transient text", services.Wrap(services.ErrAuthPermanent, "twitch", "refresh", "timeout", nil), false},
		{"malformed", services.ErrMalformed, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Retriable(tc.err); got != tc.want {
				t.Fatalf("Retriable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
