package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"etr/internal/api"
	"etr/internal/output"
	"etr/internal/trading"
)

// newBalanceCmd creates the balance command. By default it shows one
// snapshot; --watch keeps refreshing until interrupted.
func newBalanceCmd() *cobra.Command {
	var watch bool
	var interval int

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the active account's balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBalance(cmd, watch, interval)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep refreshing until interrupted")
	cmd.Flags().IntVar(&interval, "interval", 0, "Refresh interval in seconds (with --watch)")

	return cmd
}

func runBalance(cmd *cobra.Command, watch bool, intervalSeconds int) error {
	out := cmd.OutOrStdout()

	a, err := loadApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	accountIDKey, err := a.activeAccount(ctx, client)
	if err != nil {
		return err
	}

	f := output.New(out, jsonOutput)
	render := func(b *api.Balance) error {
		return f.KeyValues([][2]string{
			{"Account", b.AccountID},
			{"Type", b.AccountType},
			{"Total Value", output.Money(b.TotalAccountValue)},
			{"Net Cash", output.Money(b.NetCash)},
			{"Cash Buying Power", output.Money(b.CashBuyingPower)},
			{"Margin Buying Power", output.Money(b.MarginBuyingPower)},
		})
	}

	if !watch {
		balance, err := client.GetBalance(ctx, accountIDKey)
		if err != nil {
			return err
		}
		return render(balance)
	}

	interval := a.cfg.PollInterval()
	if intervalSeconds > 0 {
		interval = time.Duration(intervalSeconds) * time.Second
	}

	poller := trading.NewBalancePoller(client, interval,
		func(_ string, b *api.Balance) {
			_ = render(b)
			_, _ = fmt.Fprintln(out)
		},
		func(_ string, err error) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "balance refresh failed: %v\n", err)
		},
	)

	poller.Start(accountIDKey)
	defer poller.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-sig:
	case <-ctx.Done():
	}
	return nil
}
