package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ListOrders retrieves the orders of an account, optionally filtered by
// status (OPEN, EXECUTED, CANCELLED, ...). An empty filter lists all.
func (c *Client) ListOrders(ctx context.Context, accountIDKey, status string) ([]Order, error) {
	if accountIDKey == "" {
		return nil, &ValidationError{Msg: "account id is required"}
	}

	params := url.Values{}
	if status != "" {
		params.Set("status", strings.ToUpper(status))
	}

	path := fmt.Sprintf("/v1/accounts/%s/orders.json", accountIDKey)
	resp, err := c.GetWithParams(ctx, path, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result ordersListResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(result.OrdersResponse.Order))
	for i := range result.OrdersResponse.Order {
		orders = append(orders, result.OrdersResponse.Order[i].toOrder())
	}

	return orders, nil
}

// GetOrder retrieves a single order by id. A broker 404 is reported as
// NotFoundError.
func (c *Client) GetOrder(ctx context.Context, accountIDKey, orderID string) (*Order, error) {
	if accountIDKey == "" {
		return nil, &ValidationError{Msg: "account id is required"}
	}
	if orderID == "" {
		return nil, &ValidationError{Msg: "order id is required"}
	}

	path := fmt.Sprintf("/v1/accounts/%s/orders/%s.json", accountIDKey, url.PathEscape(orderID))
	resp, err := c.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		var upErr *UpstreamError
		if errors.As(err, &upErr) && upErr.IsNotFound() {
			return nil, &NotFoundError{Resource: "order " + orderID}
		}
		return nil, err
	}

	var result orderGetResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	if len(result.OrdersResponse.Order) == 0 {
		return nil, &NotFoundError{Resource: "order " + orderID}
	}

	order := result.OrdersResponse.Order[0].toOrder()
	return &order, nil
}

// CancelOrder asks the broker to cancel an order. Whether cancelling an
// already-terminal order errors is the broker's call; such failures
// surface as plain UpstreamError.
func (c *Client) CancelOrder(ctx context.Context, accountIDKey string, orderID int64) (*CancelConfirmation, error) {
	if accountIDKey == "" {
		return nil, &ValidationError{Msg: "account id is required"}
	}
	if orderID <= 0 {
		return nil, &ValidationError{Msg: "order id is required"}
	}

	var reqBody cancelOrderRequest
	reqBody.CancelOrderRequest.OrderID = orderID
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	path := fmt.Sprintf("/v1/accounts/%s/orders/cancel.json", accountIDKey)
	resp, err := c.Put(ctx, path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result cancelOrderResponse
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return &result.CancelOrderResponse, nil
}

// PreviewOrder submits an order payload for broker-side validation and
// returns the one-time preview id required to place it.
func (c *Client) PreviewOrder(ctx context.Context, accountIDKey string, payload OrderPayload) (*PreviewResult, error) {
	if accountIDKey == "" {
		return nil, &ValidationError{Msg: "account id is required"}
	}

	body, err := json.Marshal(previewOrderRequest{PreviewOrderRequest: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	path := fmt.Sprintf("/v1/accounts/%s/orders/preview.json", accountIDKey)
	resp, err := c.Post(ctx, path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to preview order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if err := DecodeJSON(resp, &envelope); err != nil {
		return nil, err
	}

	inner, ok := envelope["PreviewOrderResponse"]
	if !ok {
		return nil, &UpstreamProtocolError{Msg: "no preview response in body"}
	}

	previewID, err := extractPreviewID(inner)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{PreviewID: previewID}

	var summary struct {
		Order []OrderEstimate `json:"Order"`
	}
	if err := json.Unmarshal(inner, &summary); err == nil && len(summary.Order) > 0 {
		result.Estimate = summary.Order[0]
	}

	log.WithFields(log.Fields{
		"previewId":     previewID,
		"clientOrderId": payload.ClientOrderID,
	}).Debug("order previewed")

	return result, nil
}

// extractPreviewID pulls the preview id out of the preview response
// wrapper. Broker responses are observed to spell the wrapper either
// "PreviewIds" or "previewIds"; both are accepted. Absence under both
// spellings means the response cannot drive a place call.
func extractPreviewID(inner json.RawMessage) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(inner, &fields); err != nil {
		return "", &UpstreamProtocolError{Msg: fmt.Sprintf("malformed preview response: %v", err)}
	}

	raw, ok := fields["PreviewIds"]
	if !ok {
		raw, ok = fields["previewIds"]
	}
	if !ok {
		return "", &UpstreamProtocolError{Msg: "no preview id in response"}
	}

	var entries []previewIDEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return "", &UpstreamProtocolError{Msg: fmt.Sprintf("malformed preview ids: %v", err)}
	}
	if len(entries) == 0 || entries[0].PreviewID.String() == "" {
		return "", &UpstreamProtocolError{Msg: "no preview id in response"}
	}

	return entries[0].PreviewID.String(), nil
}

// PlaceOrder submits an order payload together with the preview id issued
// for it. The payload must be the one that was previewed, unmodified.
func (c *Client) PlaceOrder(ctx context.Context, accountIDKey string, payload OrderPayload, previewID string) (*Order, error) {
	if accountIDKey == "" {
		return nil, &ValidationError{Msg: "account id is required"}
	}
	if previewID == "" {
		return nil, &ValidationError{Msg: "preview id is required"}
	}

	reqBody := placeOrderRequest{
		PlaceOrderRequest: placeOrderPayload{
			OrderPayload: payload,
			PreviewIDs:   []previewIDEntry{{PreviewID: json.Number(previewID)}},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	path := fmt.Sprintf("/v1/accounts/%s/orders/place.json", accountIDKey)
	resp, err := c.Post(ctx, path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var result struct {
		PlaceOrderResponse struct {
			OrderIDs []struct {
				OrderID int64 `json:"orderId"`
			} `json:"OrderIds"`
			OrderType string     `json:"orderType"`
			Order     []orderDTO `json:"Order"`
		} `json:"PlaceOrderResponse"`
	}
	if err := DecodeJSON(resp, &result); err != nil {
		return nil, err
	}

	placed := result.PlaceOrderResponse
	if len(placed.OrderIDs) == 0 {
		return nil, &UpstreamProtocolError{Msg: "no order id in place response"}
	}

	order := Order{
		OrderID:   placed.OrderIDs[0].OrderID,
		OrderType: placed.OrderType,
		Status:    "OPEN",
	}
	if len(placed.Order) > 0 {
		full := placed.Order[0].toOrder()
		full.OrderID = order.OrderID
		if full.OrderType == "" {
			full.OrderType = placed.OrderType
		}
		if full.Status == "" {
			full.Status = order.Status
		}
		order = full
	}

	log.WithFields(log.Fields{
		"orderId":       order.OrderID,
		"clientOrderId": payload.ClientOrderID,
	}).Info("order placed")

	return &order, nil
}
