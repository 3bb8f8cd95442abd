package trading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etr/internal/api"
)

// fakeOrderReader records the parameters of each call.
type fakeOrderReader struct {
	orders     []api.Order
	order      *api.Order
	confirm    *api.CancelConfirmation
	err        error
	gotAccount string
	gotStatus  string
	gotOrderID string
	gotCancel  int64
}

func (f *fakeOrderReader) ListOrders(ctx context.Context, accountIDKey, status string) ([]api.Order, error) {
	f.gotAccount, f.gotStatus = accountIDKey, status
	return f.orders, f.err
}

func (f *fakeOrderReader) GetOrder(ctx context.Context, accountIDKey, orderID string) (*api.Order, error) {
	f.gotAccount, f.gotOrderID = accountIDKey, orderID
	return f.order, f.err
}

func (f *fakeOrderReader) CancelOrder(ctx context.Context, accountIDKey string, orderID int64) (*api.CancelConfirmation, error) {
	f.gotAccount, f.gotCancel = accountIDKey, orderID
	return f.confirm, f.err
}

func TestOrderQueryService_List(t *testing.T) {
	reader := &fakeOrderReader{orders: []api.Order{{OrderID: 529}}}
	svc := NewOrderQueryService(reader, activeDirectory("abc123"))

	orders, err := svc.List(context.Background(), "OPEN")

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "abc123", reader.gotAccount)
	assert.Equal(t, "OPEN", reader.gotStatus)
}

func TestOrderQueryService_List_NoActiveAccount(t *testing.T) {
	svc := NewOrderQueryService(&fakeOrderReader{}, activeDirectory(""))

	_, err := svc.List(context.Background(), "")

	var preErr *api.PreconditionError
	assert.ErrorAs(t, err, &preErr)
}

func TestOrderQueryService_Get(t *testing.T) {
	reader := &fakeOrderReader{order: &api.Order{OrderID: 529}}
	svc := NewOrderQueryService(reader, activeDirectory("abc123"))

	order, err := svc.Get(context.Background(), "529")

	require.NoError(t, err)
	assert.Equal(t, int64(529), order.OrderID)
	assert.Equal(t, "529", reader.gotOrderID)
}

func TestOrderQueryService_Get_EmptyID(t *testing.T) {
	svc := NewOrderQueryService(&fakeOrderReader{}, activeDirectory("abc123"))

	_, err := svc.Get(context.Background(), "  ")

	var valErr *api.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestOrderQueryService_Cancel(t *testing.T) {
	reader := &fakeOrderReader{confirm: &api.CancelConfirmation{OrderID: 529}}
	svc := NewOrderQueryService(reader, activeDirectory("abc123"))

	conf, err := svc.Cancel(context.Background(), " 529 ")

	require.NoError(t, err)
	assert.Equal(t, int64(529), conf.OrderID)
	assert.Equal(t, int64(529), reader.gotCancel)
}

func TestOrderQueryService_Cancel_BadID(t *testing.T) {
	svc := NewOrderQueryService(&fakeOrderReader{}, activeDirectory("abc123"))

	for _, id := range []string{"", "abc", "-5", "0"} {
		_, err := svc.Cancel(context.Background(), id)

		var valErr *api.ValidationError
		assert.ErrorAs(t, err, &valErr, "id %q", id)
	}
}
