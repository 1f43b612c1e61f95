// Command printcastd runs the printcast daemon: the telemetry workers, the
// webcam stream supervisor, and the IPC server the CLI talks to.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"printcast/internal/config"
	"printcast/internal/daemon"
	"printcast/internal/ipc"
	"printcast/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var socketPath string
	flag.StringVar(&configPath, "config", "", "Configuration file path")
	flag.StringVar(&socketPath, "socket", "", "Path to the IPC socket")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if socketPath == "" {
		socketPath = buildSocketPath(cfg)
	}
	ipcServer, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	<-ctx.Done()
	logger.Info("printcast daemon shutting down")
	return nil
}

func buildSocketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join(os.TempDir(), "printcastd.sock")
	}
	return filepath.Join(cfg.Paths.StateDir, "printcastd.sock")
}
