package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ChainParams narrows an option chain request to strikes near a price.
// StrikeNear and StrikeCount are a bonded pair: both set or both empty.
// With both empty the broker returns its default full chain.
type ChainParams struct {
	StrikeNear  string
	StrikeCount int
}

func (p ChainParams) validate() error {
	hasNear := p.StrikeNear != ""
	hasCount := p.StrikeCount != 0
	if hasNear != hasCount {
		return &ValidationError{Msg: "strike near and strike count must be provided together (both or neither)"}
	}
	if hasNear {
		if _, err := strconv.ParseFloat(p.StrikeNear, 64); err != nil {
			return &ValidationError{Msg: "strike near must be a number"}
		}
		if p.StrikeCount < 0 {
			return &ValidationError{Msg: "strike count must be positive"}
		}
	}
	return nil
}

// GetOptionChain retrieves the call/put pairs for a symbol and expiry.
// Each contract carries the opaque OSI key used verbatim as the option
// symbol of an order draft.
func (c *Client) GetOptionChain(ctx context.Context, symbol string, expiry ExpirationDate, params ChainParams) ([]OptionPair, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, &ValidationError{Msg: "symbol is required"}
	}
	if expiry.Year == 0 || expiry.Month == 0 || expiry.Day == 0 {
		return nil, &ValidationError{Msg: "expiry date is required"}
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("expiryYear", strconv.Itoa(expiry.Year))
	query.Set("expiryMonth", strconv.Itoa(expiry.Month))
	query.Set("expiryDay", strconv.Itoa(expiry.Day))
	if params.StrikeNear != "" {
		query.Set("strikePriceNear", params.StrikeNear)
		query.Set("noOfStrikes", strconv.Itoa(params.StrikeCount))
	}

	resp, err := c.GetWithParams(ctx, "/v1/market/optionchains.json", query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch option chain: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result optionChainResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	pairs := make([]OptionPair, 0, len(result.OptionChainResponse.OptionPair))
	for _, p := range result.OptionChainResponse.OptionPair {
		pair := OptionPair{Call: p.Call, Put: p.Put}
		switch {
		case p.Call != nil:
			pair.Strike = p.Call.StrikePrice
		case p.Put != nil:
			pair.Strike = p.Put.StrikePrice
		}
		pairs = append(pairs, pair)
	}

	return pairs, nil
}

// GetExpirationDates retrieves the expiries the broker offers for a symbol,
// in broker order, along with the broker-flagged nearest date. Nearest is
// never computed locally: it is the first date the broker marks selected,
// falling back to the first date listed.
func (c *Client) GetExpirationDates(ctx context.Context, symbol string) (*ExpirationDates, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, &ValidationError{Msg: "symbol is required"}
	}

	query := url.Values{}
	query.Set("symbol", symbol)

	resp, err := c.GetWithParams(ctx, "/v1/market/optionexpiredate.json", query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch expiration dates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result expirationDateResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	dates := result.OptionExpireDateResponse.ExpirationDate
	out := &ExpirationDates{Dates: dates}
	for i := range dates {
		if dates[i].Selected {
			out.Nearest = &dates[i]
			break
		}
	}
	if out.Nearest == nil && len(dates) > 0 {
		out.Nearest = &dates[0]
	}

	return out, nil
}
