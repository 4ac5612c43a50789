package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventzo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSign_MatchesGatewayScheme(t *testing.T) {
	f := newFixture(t)

	mac := hmac.New(sha256.New, []byte(testKeySecret))
	mac.Write([]byte("order_abc|pay_xyz"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, f.payments.Sign("order_abc", "pay_xyz"))
	assert.NotEqual(t, want, f.payments.Sign("order_abc", "pay_xyZ"))
}

func TestCreateOrder_UsesServerSideAmount(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 100, 500)
	user := uuid.New()
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, attendee(user), event.ID.Hex(), 3)
	require.NoError(t, err)

	order, err := f.payments.CreateOrder(ctx, user, models.CreateOrderRequest{BookingID: booking.ID.Hex()})
	require.NoError(t, err)

	assert.Equal(t, int64(157500), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "rcpt_"+booking.ID.Hex(), order.Receipt)
	assert.Equal(t, "rzp_test_key", order.KeyID)
	assert.Equal(t, booking.ID, order.BookingID)

	stored, err := f.store.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, stored.BookingID)
	assert.Equal(t, user, stored.UserID)
}

func TestCreateOrder_Rejections(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 100, 500)
	user := uuid.New()
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, attendee(user), event.ID.Hex(), 3)
	require.NoError(t, err)
	id := booking.ID.Hex()

	wrong := int64(100)
	right := int64(1575)

	tests := []struct {
		name string
		user uuid.UUID
		req  models.CreateOrderRequest
		want error
	}{
		{"client amount differs", user, models.CreateOrderRequest{BookingID: id, Amount: &wrong}, models.ErrAmountMismatch},
		{"other user", uuid.New(), models.CreateOrderRequest{BookingID: id}, models.ErrForbidden},
		{"unknown booking", user, models.CreateOrderRequest{BookingID: primitive.NewObjectID().Hex()}, models.ErrNotFound},
		{"malformed booking id", user, models.CreateOrderRequest{BookingID: "xyz"}, models.ErrValidation},
		{"currency differs", user, models.CreateOrderRequest{BookingID: id, Currency: "USD"}, models.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.payments.CreateOrder(ctx, tt.user, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = f.payments.CreateOrder(ctx, user, models.CreateOrderRequest{BookingID: id, Amount: &right, Currency: "inr"})
	assert.NoError(t, err)

	_, err = f.bookings.CancelBooking(ctx, id, user)
	require.NoError(t, err)
	_, err = f.payments.CreateOrder(ctx, user, models.CreateOrderRequest{BookingID: id})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCreateOrder_GatewayDown(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 100, 500)
	user := uuid.New()
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, attendee(user), event.ID.Hex(), 1)
	require.NoError(t, err)

	f.gateway.err = fmt.Errorf("dial tcp: timeout: %w", models.ErrGatewayUnavailable)
	_, err = f.payments.CreateOrder(ctx, user, models.CreateOrderRequest{BookingID: booking.ID.Hex()})
	assert.ErrorIs(t, err, models.ErrGatewayUnavailable)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 100, 500)
	user := uuid.New()
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, attendee(user), event.ID.Hex(), 3)
	require.NoError(t, err)
	proof := f.pay(t, user, booking, "pay_001")
	expected := MinorUnits(booking.TotalAmount)

	t.Run("valid proof", func(t *testing.T) {
		assert.NoError(t, f.payments.Verify(ctx, proof, booking.ID, expected))
	})

	t.Run("uppercase hex is accepted", func(t *testing.T) {
		p := proof
		p.Signature = fmt.Sprintf("%X", mustDecodeHex(t, proof.Signature))
		assert.NoError(t, f.payments.Verify(ctx, p, booking.ID, expected))
	})

	t.Run("tampered signature", func(t *testing.T) {
		p := proof
		flipped := byte('a')
		if proof.Signature[0] == 'a' {
			flipped = 'b'
		}
		p.Signature = string(flipped) + proof.Signature[1:]
		assert.ErrorIs(t, f.payments.Verify(ctx, p, booking.ID, expected), models.ErrSignatureMismatch)
	})

	t.Run("swapped payment id", func(t *testing.T) {
		p := proof
		p.PaymentID = "pay_002"
		assert.ErrorIs(t, f.payments.Verify(ctx, p, booking.ID, expected), models.ErrSignatureMismatch)
	})

	t.Run("signed with another secret", func(t *testing.T) {
		other := NewPaymentService(f.gateway, f.store, f.store, "k", "other_secret", "INR", discardLogger())
		p := proof
		p.Signature = other.Sign(proof.OrderID, proof.PaymentID)
		assert.ErrorIs(t, f.payments.Verify(ctx, p, booking.ID, expected), models.ErrSignatureMismatch)
	})

	t.Run("unknown order", func(t *testing.T) {
		p := models.PaymentProof{OrderID: "order_unknown", PaymentID: "pay_001"}
		p.Signature = f.payments.Sign(p.OrderID, p.PaymentID)
		assert.ErrorIs(t, f.payments.Verify(ctx, p, booking.ID, expected), models.ErrSignatureMismatch)
	})

	t.Run("order bound to another booking", func(t *testing.T) {
		assert.ErrorIs(t, f.payments.Verify(ctx, proof, primitive.NewObjectID(), expected), models.ErrSignatureMismatch)
	})

	t.Run("amount differs", func(t *testing.T) {
		assert.ErrorIs(t, f.payments.Verify(ctx, proof, booking.ID, expected+100), models.ErrAmountMismatch)
	})

	t.Run("missing fields", func(t *testing.T) {
		assert.ErrorIs(t, f.payments.Verify(ctx, models.PaymentProof{OrderID: proof.OrderID}, booking.ID, expected), models.ErrValidation)
	})
}

func TestConfirmBooking_OrderAmountMismatch(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, 100, 500)
	user := uuid.New()
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, attendee(user), event.ID.Hex(), 3)
	require.NoError(t, err)

	// an order for the right booking but the wrong amount, signed correctly
	require.NoError(t, f.store.SaveOrder(ctx, &models.PaymentOrder{
		OrderID:   "order_short",
		BookingID: booking.ID,
		UserID:    user,
		Amount:    100,
		Currency:  "INR",
	}))
	proof := models.PaymentProof{OrderID: "order_short", PaymentID: "pay_001", Signature: f.payments.Sign("order_short", "pay_001")}

	_, err = f.bookings.ConfirmBooking(ctx, booking.ID.Hex(), user, proof)
	assert.ErrorIs(t, err, models.ErrAmountMismatch)
	assert.Equal(t, models.BookingStatusPending, f.booking(t, booking).Status)
	assert.Equal(t, 100, f.event(t, event).AvailableSeats)
}

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
