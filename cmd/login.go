package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"etr/internal/output"
)

// newLoginCmd creates the login command: the interactive three-legged
// handshake with the broker.
func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize the CLI with your brokerage account",
		Long: `Run the broker's authorization handshake.

The command prints an authorization URL. Open it in a browser, approve
the request, and paste the verification code back here. The resulting
access credential is cached, so subsequent commands work without
logging in again until the broker expires it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd)
		},
	}
	return cmd
}

func runLogin(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	a, err := loadApp()
	if err != nil {
		return err
	}

	authorizeURL, err := a.session.BeginAuthorization()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "Open this URL in your browser and approve access:")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "  %s\n", authorizeURL)
	_, _ = fmt.Fprintln(out)

	prompt := newTerminalPrompter(cmd.InOrStdin(), out)
	verifier, err := prompt.ReadLine("Verification code: ")
	if err != nil {
		return fmt.Errorf("failed to read verification code: %w", err)
	}

	if err := a.session.CompleteAuthorization(verifier); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "Logged in.")

	// Show where the session landed: the reachable accounts and the
	// active account's balance.
	ctx := cmd.Context()
	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	dir := a.directory(client)
	accounts, err := dir.Reload(ctx)
	if err != nil {
		return err
	}
	if a.cfg.AccountIDKey != "" {
		dir.SelectActive(a.cfg.AccountIDKey)
	}
	if len(accounts) == 0 {
		_, _ = fmt.Fprintln(out, "No accounts available under this login.")
		return nil
	}
	_, _ = fmt.Fprintf(out, "%d account(s) available, active: %s\n", len(accounts), dir.Active())

	balance, err := client.GetBalance(ctx, dir.Active())
	if err != nil {
		return err
	}
	f := output.New(out, jsonOutput)
	return f.KeyValues([][2]string{
		{"Account", balance.AccountID},
		{"Total Value", output.Money(balance.TotalAccountValue)},
		{"Net Cash", output.Money(balance.NetCash)},
	})
}

// newStatusCmd creates the status command: probes whether the cached
// credential is still valid.
func newStatusCmd() *cobra.Command {
	var renew bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			a, err := loadApp()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if renew {
				if err := a.session.Renew(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, "Access credential renewed.")
			}

			status, err := a.session.CheckStatus(ctx, a.cfg.BaseURL())
			if err != nil {
				return err
			}

			f := output.New(out, jsonOutput)
			mode := "production"
			if status.Sandbox {
				mode = "sandbox"
			}
			session := "logged out"
			if status.Authenticated {
				session = "logged in"
			}
			return f.KeyValues([][2]string{
				{"Session", session},
				{"Mode", mode},
			})
		},
	}

	cmd.Flags().BoolVar(&renew, "renew", false, "Ask the broker to extend the credential's validity first")

	return cmd
}

// newLogoutCmd creates the logout command.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the cached access credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			if err := a.session.Logout(); err != nil {
				return fmt.Errorf("failed to clear credential cache: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
