package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"etr/internal/output"
)

// newQuoteCmd creates the quote command.
func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol>",
		Short: "Show a quote snapshot for a symbol",
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

			q, err := client.GetQuote(ctx, args[0])
			if err != nil {
				return err
			}

			f := output.New(cmd.OutOrStdout(), jsonOutput)
			return f.KeyValues([][2]string{
				{"Symbol", q.Symbol},
				{"Company", q.CompanyName},
				{"Last", output.Money(q.LastTrade)},
				{"Change", fmt.Sprintf("%s (%.2f%%)", output.Money(q.ChangeClose), q.ChangePercent)},
				{"Bid", fmt.Sprintf("%s x %d", output.Money(q.Bid), q.BidSize)},
				{"Ask", fmt.Sprintf("%s x %d", output.Money(q.Ask), q.AskSize)},
				{"Volume", output.Volume(q.TotalVolume)},
				{"52w Range", fmt.Sprintf("%s - %s", output.Money(q.Low52), output.Money(q.High52))},
			})
		},
	}
}
