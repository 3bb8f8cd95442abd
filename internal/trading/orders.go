package trading

import (
	"context"
	"strconv"
	"strings"

	"etr/internal/api"
)

// OrderReader is the slice of the API client the query service needs.
type OrderReader interface {
	ListOrders(ctx context.Context, accountIDKey, status string) ([]api.Order, error)
	GetOrder(ctx context.Context, accountIDKey, orderID string) (*api.Order, error)
	CancelOrder(ctx context.Context, accountIDKey string, orderID int64) (*api.CancelConfirmation, error)
}

// OrderQueryService lists, inspects, and cancels existing orders against
// the directory's active account. The broker's order record is always
// authoritative; nothing is cached here.
type OrderQueryService struct {
	client OrderReader
	dir    *Directory
}

// NewOrderQueryService creates a query service over the given order
// endpoints and account directory.
func NewOrderQueryService(client OrderReader, dir *Directory) *OrderQueryService {
	return &OrderQueryService{client: client, dir: dir}
}

func (s *OrderQueryService) activeAccount() (string, error) {
	accountIDKey := s.dir.Active()
	if accountIDKey == "" {
		return "", &api.PreconditionError{Msg: "no active account"}
	}
	return accountIDKey, nil
}

// List returns the active account's orders, optionally filtered by status.
func (s *OrderQueryService) List(ctx context.Context, status string) ([]api.Order, error) {
	accountIDKey, err := s.activeAccount()
	if err != nil {
		return nil, err
	}
	return s.client.ListOrders(ctx, accountIDKey, status)
}

// Get looks up a single order by id on the active account.
func (s *OrderQueryService) Get(ctx context.Context, orderID string) (*api.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, &api.ValidationError{Msg: "order id is required"}
	}
	accountIDKey, err := s.activeAccount()
	if err != nil {
		return nil, err
	}
	return s.client.GetOrder(ctx, accountIDKey, orderID)
}

// Cancel requests cancellation of an order on the active account. A second
// cancel of an already-terminal order is the broker's call and surfaces as
// whatever UpstreamError it returns; callers wanting idempotence should
// check status first.
func (s *OrderQueryService) Cancel(ctx context.Context, orderID string) (*api.CancelConfirmation, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(orderID), 10, 64)
	if err != nil || id <= 0 {
		return nil, &api.ValidationError{Msg: "order id must be a positive number"}
	}
	accountIDKey, err := s.activeAccount()
	if err != nil {
		return nil, err
	}
	return s.client.CancelOrder(ctx, accountIDKey, id)
}
