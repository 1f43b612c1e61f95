package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"printcast/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the printcast daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			socket := ctx.socketPath()

			if socketAlive(socket) {
				return startViaClient(ctx, stdout, true)
			}

			fmt.Fprintln(stdout, "Daemon not running, launching...")
			if err := launchDaemon(ctx, socket); err != nil {
				return err
			}
			if err := waitForSocket(socket, 10*time.Second); err != nil {
				return err
			}
			return startViaClient(ctx, stdout, false)
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the printcast daemon workers and stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if !socketAlive(ctx.socketPath()) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return fmt.Errorf("stop daemon: %w", err)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, worker, and stream status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return fmt.Errorf("query status: %w", err)
				}
				renderStatus(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func startViaClient(ctx *commandContext, stdout io.Writer, existing bool) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.Start()
		if err != nil {
			return fmt.Errorf("start daemon: %w", err)
		}
		switch {
		case resp.Started:
			fmt.Fprintln(stdout, "Daemon started")
		case existing && strings.TrimSpace(resp.Message) != "":
			fmt.Fprintln(stdout, resp.Message)
		default:
			fmt.Fprintln(stdout, "Daemon already running")
		}
		return nil
	})
}

func socketAlive(socket string) bool {
	conn, err := net.DialTimeout("unix", socket, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// launchDaemon spawns printcastd detached, looking for the binary next to the
// CLI executable first and falling back to PATH.
func launchDaemon(ctx *commandContext, socket string) error {
	binary := "printcastd"
	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), "printcastd")
		if _, statErr := os.Stat(sibling); statErr == nil {
			binary = sibling
		}
	}

	args := []string{"--socket", socket}
	if ctx.configFlag != nil {
		if cfgPath := strings.TrimSpace(*ctx.configFlag); cfgPath != "" {
			args = append(args, "--config", cfgPath)
		}
	}

	cmd := exec.Command(binary, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch printcastd: %w", err)
	}
	return cmd.Process.Release()
}

func waitForSocket(socket string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if socketAlive(socket) {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not come up within %s (socket %s)", timeout, socket)
}
