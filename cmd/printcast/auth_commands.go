package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"printcast/internal/ipc"
	"printcast/internal/twitch"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Twitch credentials",
	}

	authCmd.AddCommand(newAuthSeedCommand(ctx))
	authCmd.AddCommand(newAuthStatusCommand(ctx))

	return authCmd
}

func newAuthSeedCommand(ctx *commandContext) *cobra.Command {
	var accessToken string
	var refreshToken string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store a fresh Twitch OAuth token pair",
		Long: "Stores an access/refresh token pair obtained from the Twitch OAuth flow.\n" +
			"Seeds the running daemon when one is available, otherwise writes the\n" +
			"token state file directly so the daemon picks it up on start.",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			access := strings.TrimSpace(accessToken)
			refresh := strings.TrimSpace(refreshToken)
			if access == "" || refresh == "" {
				reader := bufio.NewReader(cmd.InOrStdin())
				var err error
				if access == "" {
					if access, err = promptValue(reader, stdout, "Access token: "); err != nil {
						return err
					}
				}
				if refresh == "" {
					if refresh, err = promptValue(reader, stdout, "Refresh token: "); err != nil {
						return err
					}
				}
			}
			if refresh == "" {
				return fmt.Errorf("refresh token is required")
			}

			if socketAlive(ctx.socketPath()) {
				return ctx.withClient(func(client *ipc.Client) error {
					resp, err := client.AuthSeed(access, refresh)
					if err != nil {
						return fmt.Errorf("seed credentials: %w", err)
					}
					if !resp.Seeded {
						if resp.Message != "" {
							return fmt.Errorf("seed credentials: %s", resp.Message)
						}
						return fmt.Errorf("seed credentials: daemon rejected the token pair")
					}
					fmt.Fprintln(stdout, "Credentials seeded")
					return nil
				})
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			manager, err := twitch.NewTokenManager(cfg)
			if err != nil {
				return fmt.Errorf("init token manager: %w", err)
			}
			if err := manager.Seed(access, refresh); err != nil {
				return fmt.Errorf("seed credentials: %w", err)
			}
			fmt.Fprintf(stdout, "Credentials written to %s\n", cfg.TokenStatePath())
			return nil
		},
	}

	cmd.Flags().StringVar(&accessToken, "access-token", "", "OAuth access token")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "OAuth refresh token")
	return cmd
}

func newAuthStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show credential state",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			if socketAlive(ctx.socketPath()) {
				return ctx.withClient(func(client *ipc.Client) error {
					resp, err := client.AuthStatus()
					if err != nil {
						return fmt.Errorf("query auth status: %w", err)
					}
					fmt.Fprintf(stdout, "Seeded: %s\n", yesNo(resp.Seeded))
					if resp.ClientIdentifier != "" {
						fmt.Fprintf(stdout, "Client identifier: %s\n", resp.ClientIdentifier)
					}
					return nil
				})
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			manager, err := twitch.NewTokenManager(cfg)
			if err != nil {
				return fmt.Errorf("init token manager: %w", err)
			}
			fmt.Fprintf(stdout, "Seeded: %s\n", yesNo(manager.Seeded()))
			if id := manager.ClientIdentifier(); id != "" {
				fmt.Fprintf(stdout, "Client identifier: %s\n", id)
			}
			return nil
		},
	}
}

func promptValue(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
