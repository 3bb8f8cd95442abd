package api

import (
	"context"
	"fmt"
	"net/url"
)

// ListAccounts retrieves all brokerage accounts reachable under the
// current credential.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	resp, err := c.Get(ctx, "/v1/accounts/list.json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result accountListResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return result.AccountListResponse.Accounts.Account, nil
}

// GetBalance retrieves the computed balance for the given account.
func (c *Client) GetBalance(ctx context.Context, accountIDKey string) (*Balance, error) {
	if accountIDKey == "" {
		return nil, &ValidationError{Msg: "account id is required"}
	}

	params := url.Values{}
	params.Set("instType", "BROKERAGE")
	params.Set("realTimeNAV", "true")

	path := fmt.Sprintf("/v1/accounts/%s/balance.json", accountIDKey)
	resp, err := c.GetWithParams(ctx, path, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result balanceResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	b := result.BalanceResponse
	return &Balance{
		AccountID:         b.AccountID,
		AccountType:       b.AccountType,
		TotalAccountValue: b.Computed.RealTimeValues.TotalAccountValue,
		NetCash:           b.Computed.NetCash,
		CashBuyingPower:   b.Computed.CashBuyingPower,
		MarginBuyingPower: b.Computed.MarginBuyingPower,
	}, nil
}

// GetPortfolio retrieves the positions held in the given account.
func (c *Client) GetPortfolio(ctx context.Context, accountIDKey string) ([]Position, error) {
	if accountIDKey == "" {
		return nil, &ValidationError{Msg: "account id is required"}
	}

	path := fmt.Sprintf("/v1/accounts/%s/portfolio.json", accountIDKey)
	resp, err := c.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch portfolio: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result portfolioResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	var positions []Position
	for _, ap := range result.PortfolioResponse.AccountPortfolio {
		for _, p := range ap.Position {
			positions = append(positions, Position{
				Symbol:       p.Product.Symbol,
				SecurityType: p.Product.SecurityType,
				Quantity:     p.Quantity,
				PricePaid:    p.PricePaid,
				LastTrade:    p.Quick.LastTrade,
				MarketValue:  p.MarketValue,
				TotalGain:    p.TotalGain,
			})
		}
	}

	return positions, nil
}
