package api

import (
	"context"
	"fmt"
	"strings"
)

// GetQuote retrieves a quote snapshot for a single symbol. An unknown
// symbol reports NotFoundError; the broker signals it with a Messages
// block instead of QuoteData.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, &ValidationError{Msg: "symbol is required"}
	}

	path := fmt.Sprintf("/v1/market/quote/%s.json", symbol)
	resp, err := c.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result quoteResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	data := result.QuoteResponse.QuoteData
	if len(data) == 0 {
		for _, m := range result.QuoteResponse.Messages.Message {
			if strings.EqualFold(m.Type, "ERROR") {
				return nil, &NotFoundError{Resource: "quote for " + symbol}
			}
		}
		return nil, &UpstreamProtocolError{Msg: "no quote data in response"}
	}

	q := data[0]
	return &Quote{
		Symbol:        q.Product.Symbol,
		CompanyName:   q.All.CompanyName,
		LastTrade:     q.All.LastTrade,
		Bid:           q.All.Bid,
		Ask:           q.All.Ask,
		BidSize:       q.All.BidSize,
		AskSize:       q.All.AskSize,
		TotalVolume:   q.All.TotalVolume,
		ChangeClose:   q.All.ChangeClose,
		ChangePercent: q.All.ChangePercent,
		High52:        q.All.High52,
		Low52:         q.All.Low52,
	}, nil
}
