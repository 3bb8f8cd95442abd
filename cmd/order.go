package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"etr/internal/api"
	"etr/internal/output"
	"etr/internal/trading"
)

// orderFlags are the pricing flags shared by the equity and option trade
// commands.
type orderFlags struct {
	quantity    int
	priceType   string
	limit       string
	stop        string
	term        string
	session     string
	allOrNone   bool
	yes         bool
	previewOnly bool
}

func (f *orderFlags) register(cmd *cobra.Command, withStop bool) {
	cmd.Flags().IntVarP(&f.quantity, "quantity", "q", 0, "Number of shares or contracts")
	cmd.Flags().StringVar(&f.priceType, "price-type", "MARKET", "MARKET, LIMIT, STOP, or STOP_LIMIT")
	cmd.Flags().StringVar(&f.limit, "limit", "", "Limit price")
	cmd.Flags().StringVar(&f.term, "term", "GOOD_FOR_DAY", "Order term")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "Place without a confirmation prompt")
	cmd.Flags().BoolVar(&f.previewOnly, "preview", false, "Show the broker's estimate without placing")
	if withStop {
		cmd.Flags().StringVar(&f.stop, "stop", "", "Stop price")
		cmd.Flags().StringVar(&f.session, "session", "REGULAR", "REGULAR or EXTENDED")
		cmd.Flags().BoolVar(&f.allOrNone, "all-or-none", false, "Fill completely or not at all")
	}
	_ = cmd.MarkFlagRequired("quantity")
}

// newOrderCmd creates the order command group.
func newOrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Preview, place, inspect, and cancel orders",
	}

	cmd.AddCommand(
		newOrderEquityCmd("buy", "BUY", "Buy shares of an equity"),
		newOrderEquityCmd("sell", "SELL", "Sell shares of an equity"),
		newOrderOptionCmd(),
		newOrderListCmd(),
		newOrderStatusCmd(),
		newOrderCancelCmd(),
	)
	return cmd
}

func newOrderEquityCmd(use, action, short string) *cobra.Command {
	var flags orderFlags

	cmd := &cobra.Command{
		Use:   use + " <symbol>",
		Short: short,
		Long: short + `.

The order is previewed first: the broker returns its cost estimate and a
one-time token, the estimate is shown, and you confirm before the order
is placed. A declined confirmation discards the preview.

Examples:
  etr order ` + use + ` AAPL -q 10
  etr order ` + use + ` AAPL -q 10 --price-type LIMIT --limit 185.50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := trading.EquityDraft{
				Symbol:        args[0],
				OrderAction:   action,
				PriceType:     flags.priceType,
				LimitPrice:    flags.limit,
				StopPrice:     flags.stop,
				OrderTerm:     flags.term,
				MarketSession: flags.session,
				AllOrNone:     flags.allOrNone,
				Quantity:      flags.quantity,
			}
			return runTrade(cmd, draft, flags)
		},
	}

	flags.register(cmd, true)
	return cmd
}

func newOrderOptionCmd() *cobra.Command {
	var flags orderFlags
	var action string

	cmd := &cobra.Command{
		Use:   "option <option-symbol>",
		Short: "Trade a single-leg option contract",
		Long: `Trade one option contract by its chain key.

The option symbol is the contract key shown by "etr options chain",
passed verbatim.

Examples:
  etr order option "AAPL--260116C00190000" --action BUY_OPEN -q 1 --price-type LIMIT --limit 4.20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := trading.OptionDraft{
				OptionSymbol: args[0],
				OrderAction:  action,
				PriceType:    flags.priceType,
				LimitPrice:   flags.limit,
				OrderTerm:    flags.term,
				Quantity:     flags.quantity,
			}
			return runTrade(cmd, draft, flags)
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringVar(&action, "action", "", "BUY_OPEN, BUY_CLOSE, SELL_OPEN, or SELL_CLOSE")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

// runTrade previews a draft, shows the broker's estimate, confirms, and
// places. Shared by the equity and option trade commands.
func runTrade(cmd *cobra.Command, draft trading.Draft, flags orderFlags) error {
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

	dir, err := readyDirectory(ctx, a, client)
	if err != nil {
		return err
	}

	workflow := trading.NewWorkflow(client, dir)

	preview, err := workflow.Preview(ctx, draft)
	if err != nil {
		return err
	}

	f := output.New(out, jsonOutput)
	if err := f.KeyValues([][2]string{
		{"Account", preview.AccountIDKey},
		{"Est. Commission", output.Money(preview.Estimate.EstimatedCommission)},
		{"Est. Total", output.Money(preview.Estimate.EstimatedTotalAmount)},
	}); err != nil {
		return err
	}

	if flags.previewOnly {
		workflow.Discard(draft.Kind())
		_, _ = fmt.Fprintln(out, "Preview only; order not placed.")
		return nil
	}

	if !flags.yes {
		prompt := newTerminalPrompter(cmd.InOrStdin(), out)
		ok, err := prompt.Confirm("Place this order? [y/N]: ")
		if err != nil {
			return err
		}
		if !ok {
			workflow.Discard(draft.Kind())
			_, _ = fmt.Fprintln(out, "Order discarded.")
			return nil
		}
	}

	order, err := workflow.Place(ctx, draft.Kind())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Order %d placed: %s\n", order.OrderID, order.Status)
	return nil
}

// readyDirectory returns a directory whose active account is resolved,
// reloading from the broker when no preference is configured.
func readyDirectory(ctx context.Context, a *app, client *api.Client) (*trading.Directory, error) {
	dir := a.directory(client)
	if dir.Active() != "" {
		return dir, nil
	}
	if _, err := dir.Reload(ctx); err != nil {
		return nil, err
	}
	if dir.Active() == "" {
		return nil, fmt.Errorf("no accounts available under this login")
	}
	return dir, nil
}

func newOrderListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the active account's orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := orderService(cmd)
			if err != nil {
				return err
			}

			orders, err := svc.List(cmd.Context(), strings.ToUpper(status))
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(orders))
			for _, o := range orders {
				rows = append(rows, orderRow(o))
			}

			f := output.New(cmd.OutOrStdout(), jsonOutput)
			return f.Table(orderHeaders(), rows)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (e.g. OPEN, EXECUTED, CANCELLED)")
	return cmd
}

func newOrderStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := orderService(cmd)
			if err != nil {
				return err
			}

			order, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			f := output.New(cmd.OutOrStdout(), jsonOutput)
			return f.Table(orderHeaders(), [][]string{orderRow(*order)})
		},
	}
}

func newOrderCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel an open order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := orderService(cmd)
			if err != nil {
				return err
			}

			conf, err := svc.Cancel(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cancel requested for order %d\n", conf.OrderID)
			return nil
		},
	}
}

// orderService builds the query service over the resolved active account.
func orderService(cmd *cobra.Command) (*trading.OrderQueryService, error) {
	a, err := loadApp()
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	client, err := a.apiClient(ctx)
	if err != nil {
		return nil, err
	}

	dir, err := readyDirectory(ctx, a, client)
	if err != nil {
		return nil, err
	}

	return trading.NewOrderQueryService(client, dir), nil
}

func orderHeaders() []string {
	return []string{"Order", "Type", "Status", "Symbol", "Action", "Qty", "Filled", "Price", "Placed"}
}

func orderRow(o api.Order) []string {
	symbol, action := "", ""
	var qty, filled float64
	if len(o.Legs) > 0 {
		symbol = o.Legs[0].Symbol
		action = o.Legs[0].OrderAction
		qty = o.Legs[0].Quantity
		filled = o.Legs[0].FilledQty
	}

	price := o.PriceType
	if o.PriceType == "LIMIT" || o.PriceType == "STOP_LIMIT" {
		price = fmt.Sprintf("%s %s", o.PriceType, output.Money(o.LimitPrice))
	}

	placed := ""
	if o.PlacedTime > 0 {
		placed = time.UnixMilli(o.PlacedTime).Format("2006-01-02 15:04")
	}

	return []string{
		fmt.Sprintf("%d", o.OrderID),
		o.OrderType,
		o.Status,
		symbol,
		action,
		fmt.Sprintf("%g", qty),
		fmt.Sprintf("%g", filled),
		price,
		placed,
	}
}
