package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventzo/internal/metrics"
	"github.com/joshua-takyi/eventzo/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gateway creates orders with the payment provider. Implementations return
// errors wrapping models.ErrGatewayUnavailable on any transport or provider
// failure.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*models.PaymentOrder, error)
}

type PaymentService struct {
	gateway   Gateway
	payments  models.PaymentRepo
	bookings  models.BookingRepo
	keyID     string
	keySecret []byte
	currency  string
	logger    *slog.Logger
}

func NewPaymentService(gateway Gateway, payments models.PaymentRepo, bookings models.BookingRepo, keyID, keySecret, currency string, logger *slog.Logger) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{
		gateway:   gateway,
		payments:  payments,
		bookings:  bookings,
		keyID:     keyID,
		keySecret: []byte(keySecret),
		currency:  strings.ToUpper(currency),
		logger:    logger,
	}
}

func (ps *PaymentService) Currency() string {
	return ps.currency
}

// CreateOrder opens a gateway order for the stored total of a pending booking.
// A client amount, when sent, is only compared with the booking total.
func (ps *PaymentService) CreateOrder(ctx context.Context, userID uuid.UUID, req models.CreateOrderRequest) (*models.PaymentOrder, error) {
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	bookingID, err := primitive.ObjectIDFromHex(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking id", models.ErrValidation)
	}

	booking, err := ps.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(userID) {
		return nil, fmt.Errorf("booking %s: %w", bookingID.Hex(), models.ErrForbidden)
	}
	if booking.Status != models.BookingStatusPending {
		return nil, fmt.Errorf("booking %s is %s: %w", bookingID.Hex(), booking.Status, models.ErrInvalidState)
	}
	if req.Amount != nil && *req.Amount != booking.TotalAmount {
		return nil, fmt.Errorf("requested %d, booking total is %d: %w", *req.Amount, booking.TotalAmount, models.ErrAmountMismatch)
	}

	currency := booking.Currency
	if currency == "" {
		currency = ps.currency
	}
	if req.Currency != "" && !strings.EqualFold(req.Currency, currency) {
		return nil, fmt.Errorf("%w: booking is payable in %s", models.ErrValidation, currency)
	}

	receipt := req.Receipt
	if receipt == "" {
		receipt = "rcpt_" + bookingID.Hex()
	}

	amount := MinorUnits(booking.TotalAmount)
	order, err := ps.gateway.CreateOrder(ctx, amount, currency, receipt, map[string]string{
		"booking_id": bookingID.Hex(),
	})
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.GatewayRequests.WithLabelValues("ok").Inc()

	order.BookingID = bookingID
	order.UserID = userID
	order.CreatedAt = time.Now()
	if order.Amount != amount {
		// the gateway echoes the amount; anything else means the order is unusable
		return nil, fmt.Errorf("gateway returned amount %d for %d: %w", order.Amount, amount, models.ErrAmountMismatch)
	}
	if err := ps.payments.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save payment order: %w", err)
	}

	ps.logger.Info("payment order created",
		"booking_id", bookingID.Hex(),
		"order_id", order.OrderID,
		"amount", order.Amount,
		"currency", order.Currency,
	)
	order.KeyID = ps.keyID
	return order, nil
}

// Sign returns the hex HMAC-SHA256 of orderID|paymentID under the key secret.
func (ps *PaymentService) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, ps.keySecret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks that proof is authentic and belongs to bookingID for exactly
// expectedAmount minor units. Unknown or foreign orders report the same error
// as a bad signature.
func (ps *PaymentService) Verify(ctx context.Context, proof models.PaymentProof, bookingID primitive.ObjectID, expectedAmount int64) error {
	if proof.OrderID == "" || proof.PaymentID == "" || proof.Signature == "" {
		return fmt.Errorf("%w: order id, payment id and signature are required", models.ErrValidation)
	}

	expected := ps.Sign(proof.OrderID, proof.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(proof.Signature))) {
		return models.ErrSignatureMismatch
	}

	order, err := ps.payments.GetOrder(ctx, proof.OrderID)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrSignatureMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to load payment order: %w", err)
	}
	if order.BookingID != bookingID {
		ps.logger.Warn("payment proof replayed against another booking",
			"order_id", proof.OrderID,
			"order_booking_id", order.BookingID.Hex(),
			"booking_id", bookingID.Hex(),
		)
		return models.ErrSignatureMismatch
	}
	if order.Amount != expectedAmount {
		return fmt.Errorf("order amount %d, booking expects %d: %w", order.Amount, expectedAmount, models.ErrAmountMismatch)
	}
	return nil
}

// RecordAttempt stores the audit row of one verification. A nil failure means
// the payment itself was accepted.
func (ps *PaymentService) RecordAttempt(ctx context.Context, booking *models.Booking, proof models.PaymentProof, failure error) {
	attempt := &models.PaymentAttempt{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		OrderID:   proof.OrderID,
		PaymentID: proof.PaymentID,
		Signature: proof.Signature,
		Amount:    MinorUnits(booking.TotalAmount),
		Currency:  booking.Currency,
		Status:    models.PaymentStatusSuccess,
		CreatedAt: time.Now(),
	}
	if failure != nil {
		attempt.Status = models.PaymentStatusFailed
		attempt.FailureReason = failure.Error()
	}
	metrics.PaymentVerifications.WithLabelValues(string(attempt.Status)).Inc()

	if err := ps.payments.RecordAttempt(ctx, attempt); err != nil {
		ps.logger.Warn("failed to record payment attempt",
			"booking_id", booking.ID.Hex(),
			"payment_id", proof.PaymentID,
			"error", err,
		)
	}
}
