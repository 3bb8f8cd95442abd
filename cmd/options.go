package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"etr/internal/api"
	"etr/internal/output"
)

// newOptionsCmd creates the options command group: list expiries and show
// chains.
func newOptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Browse option expiries and chains",
	}

	cmd.AddCommand(newOptionsExpirationsCmd(), newOptionsChainCmd())
	return cmd
}

func newOptionsExpirationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expirations <symbol>",
		Short: "List the expiries offered for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := a.apiClient(ctx)
			if err != nil {
				return err
			}

			dates, err := client.GetExpirationDates(ctx, args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(dates.Dates))
			for _, d := range dates.Dates {
				marker := ""
				if dates.Nearest != nil && d == *dates.Nearest {
					marker = "*"
				}
				rows = append(rows, []string{
					marker,
					fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day),
					d.ExpiryType,
				})
			}

			f := output.New(cmd.OutOrStdout(), jsonOutput)
			return f.Table([]string{"Nearest", "Expiry", "Type"}, rows)
		},
	}
}

func newOptionsChainCmd() *cobra.Command {
	var expiry string
	var strikeNear string
	var strikeCount int

	cmd := &cobra.Command{
		Use:   "chain <symbol>",
		Short: "Show the option chain for a symbol and expiry",
		Long: `Show the call/put pairs for a symbol.

Without --expiry the broker's nearest expiry is used. --strike-near and
--strikes narrow the chain to a window of strikes around a price; they
must be given together.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptionsChain(cmd, args[0], expiry, strikeNear, strikeCount)
		},
	}

	cmd.Flags().StringVar(&expiry, "expiry", "", "Expiry date as YYYY-MM-DD (default: nearest)")
	cmd.Flags().StringVar(&strikeNear, "strike-near", "", "Center the chain on this strike price")
	cmd.Flags().IntVar(&strikeCount, "strikes", 0, "Number of strikes to return (with --strike-near)")

	return cmd
}

func runOptionsChain(cmd *cobra.Command, symbol, expiry, strikeNear string, strikeCount int) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	var date api.ExpirationDate
	if expiry != "" {
		date, err = parseExpiry(expiry)
		if err != nil {
			return err
		}
	} else {
		dates, err := client.GetExpirationDates(ctx, symbol)
		if err != nil {
			return err
		}
		if dates.Nearest == nil {
			return fmt.Errorf("no option expiries available for %s", strings.ToUpper(symbol))
		}
		date = *dates.Nearest
	}

	pairs, err := client.GetOptionChain(ctx, symbol, date, api.ChainParams{
		StrikeNear:  strikeNear,
		StrikeCount: strikeCount,
	})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		row := []string{"", "", "", fmt.Sprintf("%.2f", p.Strike), "", "", ""}
		if p.Call != nil {
			row[0] = p.Call.OSIKey
			row[1] = output.Money(p.Call.Bid)
			row[2] = output.Money(p.Call.Ask)
		}
		if p.Put != nil {
			row[4] = output.Money(p.Put.Bid)
			row[5] = output.Money(p.Put.Ask)
			row[6] = p.Put.OSIKey
		}
		rows = append(rows, row)
	}

	f := output.New(cmd.OutOrStdout(), jsonOutput)
	return f.Table([]string{"Call", "C Bid", "C Ask", "Strike", "P Bid", "P Ask", "Put"}, rows)
}

// parseExpiry parses a YYYY-MM-DD flag value.
func parseExpiry(s string) (api.ExpirationDate, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return api.ExpirationDate{}, fmt.Errorf("expiry must be YYYY-MM-DD, got %q", s)
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return api.ExpirationDate{}, fmt.Errorf("expiry must be YYYY-MM-DD, got %q", s)
	}
	return api.ExpirationDate{Year: year, Month: month, Day: day}, nil
}
