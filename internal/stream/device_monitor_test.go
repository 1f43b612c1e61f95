package stream

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"printcast/internal/config"
)

func monitorConfig() *config.Config {
	cfg := config.Default()
	cfg.Stream.Enabled = true
	cfg.Stream.Device = "/dev/video0"
	return &cfg
}

func TestNewDeviceMonitor(t *testing.T) {
	t.Run("nil config returns nil", func(t *testing.T) {
		if m := NewDeviceMonitor(nil, nil, nil); m != nil {
			t.Error("expected nil monitor for nil config")
		}
	})

	t.Run("disabled streaming returns nil", func(t *testing.T) {
		cfg := monitorConfig()
		cfg.Stream.Enabled = false
		if m := NewDeviceMonitor(cfg, nil, nil); m != nil {
			t.Error("expected nil monitor when streaming disabled")
		}
	})

	t.Run("empty device returns nil", func(t *testing.T) {
		cfg := monitorConfig()
		cfg.Stream.Device = "  "
		if m := NewDeviceMonitor(cfg, nil, nil); m != nil {
			t.Error("expected nil monitor for empty device")
		}
	})

	t.Run("valid config creates monitor", func(t *testing.T) {
		m := NewDeviceMonitor(monitorConfig(), nil, nil)
		if m == nil {
			t.Fatal("expected non-nil monitor")
		}
		if m.device != "/dev/video0" {
			t.Errorf("expected device /dev/video0, got %s", m.device)
		}
	})
}

func TestDeviceMonitorNilSafety(t *testing.T) {
	var m *DeviceMonitor
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor should return nil, got: %v", err)
	}
	m.Stop() // must not panic
	if m.Running() {
		t.Error("expected Running() to return false for nil monitor")
	}
}

func TestDeviceMonitorStopIsIdempotent(t *testing.T) {
	m := NewDeviceMonitor(monitorConfig(), nil, nil)
	m.Stop()
	m.Stop()
	if m.Running() {
		t.Error("expected Running() to return false after Stop")
	}
}

func TestDeviceMatcher(t *testing.T) {
	m := NewDeviceMonitor(monitorConfig(), nil, nil)
	matcher := m.buildMatcher()
	if matcher == nil {
		t.Fatal("expected non-nil matcher")
	}

	addEvent := netlink.UEvent{
		Action: netlink.ADD,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
			"DEVNAME":   "video0",
		},
	}
	if !matcher.Evaluate(addEvent) {
		t.Error("expected matcher to accept video4linux add event")
	}

	removeEvent := netlink.UEvent{
		Action: netlink.REMOVE,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
			"DEVNAME":   "video0",
		},
	}
	if matcher.Evaluate(removeEvent) {
		t.Error("expected matcher to reject remove event")
	}

	blockEvent := netlink.UEvent{
		Action: netlink.ADD,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"DEVNAME":   "sda1",
		},
	}
	if matcher.Evaluate(blockEvent) {
		t.Error("expected matcher to reject non-video subsystem")
	}
}

func TestDeviceHandleEvent(t *testing.T) {
	t.Run("kicks handler for configured device", func(t *testing.T) {
		var got string
		m := NewDeviceMonitor(monitorConfig(), nil, func(device string) { got = device })
		m.handleEvent(netlink.UEvent{
			Action: netlink.ADD,
			Env:    map[string]string{"DEVNAME": "video0"},
		})
		if got != "/dev/video0" {
			t.Errorf("expected /dev/video0, got %q", got)
		}
	})

	t.Run("ignores other devices", func(t *testing.T) {
		called := false
		m := NewDeviceMonitor(monitorConfig(), nil, func(string) { called = true })
		m.handleEvent(netlink.UEvent{
			Action: netlink.ADD,
			Env:    map[string]string{"DEVNAME": "/dev/video1"},
		})
		if called {
			t.Error("handler should not run for a different device")
		}
	})

	t.Run("falls back to DEVPATH", func(t *testing.T) {
		var got string
		m := NewDeviceMonitor(monitorConfig(), nil, func(device string) { got = device })
		m.handleEvent(netlink.UEvent{
			Action: netlink.ADD,
			Env:    map[string]string{"DEVPATH": "/devices/pci0000:00/usb1/1-2/video4linux/video0"},
		})
		if got != "/dev/video0" {
			t.Errorf("expected /dev/video0 from DEVPATH, got %q", got)
		}
	})
}
