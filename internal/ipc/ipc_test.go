package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"printcast/internal/config"
	"printcast/internal/daemon"
	"printcast/internal/ipc"
	"printcast/internal/logging"
)

func newTestServer(t *testing.T) (*ipc.Client, *daemon.Daemon) {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Twitch.ClientID = "cid"
	cfg.Twitch.ClientSecret = "secret"
	cfg.Twitch.BroadcasterLogin = "cam"

	d, err := daemon.New(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socketPath := filepath.Join(base, "printcastd.sock")
	server, err := ipc.NewServer(ctx, socketPath, d, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(socketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, d
}

func TestStatusOverIPC(t *testing.T) {
	client, _ := newTestServer(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("status call: %v", err)
	}
	if status.Running {
		t.Fatal("daemon should not report running before start")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("pid = %d, want %d", status.PID, os.Getpid())
	}
	if status.AuthSeeded {
		t.Fatal("fresh install should not report seeded credentials")
	}
	if status.Stream.Enabled {
		t.Fatal("streaming should be disabled by default")
	}
}

func TestAuthSeedOverIPC(t *testing.T) {
	client, _ := newTestServer(t)

	seedResp, err := client.AuthSeed("access", "refresh")
	if err != nil {
		t.Fatalf("auth seed call: %v", err)
	}
	if !seedResp.Seeded {
		t.Fatalf("seed rejected: %s", seedResp.Message)
	}

	authResp, err := client.AuthStatus()
	if err != nil {
		t.Fatalf("auth status call: %v", err)
	}
	if !authResp.Seeded {
		t.Fatal("expected seeded credentials")
	}
	if authResp.ClientIdentifier == "" {
		t.Fatal("expected a client identifier")
	}
}

func TestAuthSeedRejectsEmptyRefreshToken(t *testing.T) {
	client, _ := newTestServer(t)

	resp, err := client.AuthSeed("access", "")
	if err != nil {
		t.Fatalf("auth seed call: %v", err)
	}
	if resp.Seeded {
		t.Fatal("expected seed to be rejected")
	}
	if resp.Message == "" {
		t.Fatal("expected an explanatory message")
	}
}

func TestLogTailOverIPCWithMissingLog(t *testing.T) {
	client, _ := newTestServer(t)

	resp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("log tail call: %v", err)
	}
	if len(resp.Lines) != 0 {
		t.Fatalf("expected no lines for missing log, got %v", resp.Lines)
	}
}

func TestTestNotificationOverIPC(t *testing.T) {
	client, _ := newTestServer(t)

	resp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("test notification call: %v", err)
	}
	if resp.Sent {
		t.Fatal("expected no notification without a configured topic")
	}
	if resp.Message == "" {
		t.Fatal("expected an explanatory message")
	}
}

func TestStopOverIPCIsIdempotent(t *testing.T) {
	client, _ := newTestServer(t)

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("stop call: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("expected stop to report success")
	}
}
