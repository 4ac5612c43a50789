// Package gateway talks to the Razorpay orders API.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/eventzo/internal/models"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/sony/gobreaker"
)

// OrderCreator is the slice of the Razorpay SDK the service uses;
// *resources.Order from razorpay-go satisfies it.
type OrderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Razorpay struct {
	orders  OrderCreator
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewRazorpayClient(keyID, keySecret string) *razorpay.Client {
	return razorpay.NewClient(keyID, keySecret)
}

func NewRazorpay(orders OrderCreator, logger *slog.Logger) *Razorpay {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        "razorpay-orders",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("payment gateway breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &Razorpay{
		orders:  orders,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func (r *Razorpay) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*models.PaymentOrder, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: order amount must be positive", models.ErrValidation)
	}

	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	res, err := r.breaker.Execute(func() (interface{}, error) {
		return r.create(ctx, data)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", models.ErrGatewayUnavailable, err)
		}
		r.logger.Error("razorpay order creation failed", "receipt", receipt, "error", err)
		return nil, fmt.Errorf("%w: %v", models.ErrGatewayUnavailable, err)
	}

	return parseOrder(res.(map[string]interface{}))
}

// create runs the blocking SDK call so the caller's deadline still applies.
func (r *Razorpay) create(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := r.orders.Create(data, nil)
		done <- result{body, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.body, res.err
	}
}

func parseOrder(body map[string]interface{}) (*models.PaymentOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: order response has no id", models.ErrGatewayUnavailable)
	}

	var amount int64
	switch v := body["amount"].(type) {
	case float64:
		amount = int64(v)
	case int64:
		amount = v
	case int:
		amount = int64(v)
	default:
		return nil, fmt.Errorf("%w: order response has no amount", models.ErrGatewayUnavailable)
	}

	currency, _ := body["currency"].(string)
	receipt, _ := body["receipt"].(string)
	return &models.PaymentOrder{
		OrderID:  id,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}
