package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joshua-takyi/eventzo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	calls int
	last  map[string]interface{}
	reply map[string]interface{}
	err   error
	delay time.Duration
}

func (f *fakeOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.calls++
	f.last = data
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateOrder(t *testing.T) {
	orders := &fakeOrders{reply: map[string]interface{}{
		"id":       "order_Nxyz123",
		"entity":   "order",
		"amount":   float64(157500),
		"currency": "INR",
		"receipt":  "rcpt_1",
		"status":   "created",
	}}
	rp := NewRazorpay(orders, quietLogger())

	order, err := rp.CreateOrder(context.Background(), 157500, "INR", "rcpt_1", map[string]string{"booking_id": "b1"})
	require.NoError(t, err)

	assert.Equal(t, "order_Nxyz123", order.OrderID)
	assert.Equal(t, int64(157500), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "rcpt_1", order.Receipt)

	assert.Equal(t, int64(157500), orders.last["amount"])
	assert.Equal(t, map[string]string{"booking_id": "b1"}, orders.last["notes"])
}

func TestCreateOrder_GatewayErrors(t *testing.T) {
	rp := NewRazorpay(&fakeOrders{err: errors.New("503 service unavailable")}, quietLogger())
	_, err := rp.CreateOrder(context.Background(), 100, "INR", "r", nil)
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)

	rp = NewRazorpay(&fakeOrders{reply: map[string]interface{}{"amount": float64(100)}}, quietLogger())
	_, err = rp.CreateOrder(context.Background(), 100, "INR", "r", nil)
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)

	_, err = rp.CreateOrder(context.Background(), 0, "INR", "r", nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateOrder_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	orders := &fakeOrders{err: errors.New("connection reset")}
	rp := NewRazorpay(orders, quietLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := rp.CreateOrder(ctx, 100, "INR", "r", nil)
		require.ErrorIs(t, err, models.ErrGatewayUnavailable)
	}
	assert.Equal(t, 5, orders.calls)

	_, err := rp.CreateOrder(ctx, 100, "INR", "r", nil)
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)
	assert.Equal(t, 5, orders.calls, "open breaker must not reach the gateway")
}

func TestCreateOrder_HonoursDeadline(t *testing.T) {
	rp := NewRazorpay(&fakeOrders{delay: 200 * time.Millisecond, reply: map[string]interface{}{"id": "o", "amount": float64(1)}}, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := rp.CreateOrder(ctx, 100, "INR", "r", nil)
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)
}
