package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"etr/internal/output"
)

// newPortfolioCmd creates the portfolio command.
func newPortfolioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show the active account's positions",
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

			accountIDKey, err := a.activeAccount(ctx, client)
			if err != nil {
				return err
			}

			positions, err := client.GetPortfolio(ctx, accountIDKey)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(positions))
			for _, p := range positions {
				rows = append(rows, []string{
					p.Symbol,
					p.SecurityType,
					fmt.Sprintf("%g", p.Quantity),
					output.Money(p.PricePaid),
					output.Money(p.LastTrade),
					output.Money(p.MarketValue),
					output.Money(p.TotalGain),
				})
			}

			f := output.New(cmd.OutOrStdout(), jsonOutput)
			return f.Table([]string{"Symbol", "Type", "Qty", "Paid", "Last", "Value", "Gain"}, rows)
		},
	}
}
