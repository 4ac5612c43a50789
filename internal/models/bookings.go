package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingStatusPending BookingStatus = "pending"
	// BookingStatusPaymentVerified is held between signature acceptance and the
	// seat commit. Only the claimant of the pending booking may move it on.
	BookingStatusPaymentVerified      BookingStatus = "payment_verified"
	BookingStatusConfirmed            BookingStatus = "confirmed"
	BookingStatusCancelled            BookingStatus = "cancelled"
	BookingStatusReconciliationNeeded BookingStatus = "reconciliation_needed"
)

type Booking struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        uuid.UUID          `bson:"user_id" json:"user_id" validate:"required"`
	EventID       primitive.ObjectID `bson:"event_id" json:"event_id" validate:"required"`
	AttendeeName  string             `bson:"attendee_name" json:"attendee_name"`
	AttendeeEmail string             `bson:"attendee_email" json:"attendee_email"`
	Quantity      int                `bson:"quantity" json:"quantity" validate:"gte=1"`

	// price snapshot, frozen at creation
	TicketPrice int64  `bson:"ticket_price" json:"ticket_price" validate:"gt=0"`
	Subtotal    int64  `bson:"subtotal" json:"subtotal"`
	PlatformFee int64  `bson:"platform_fee" json:"platform_fee"`
	TotalAmount int64  `bson:"total_amount" json:"total_amount"`
	Currency    string `bson:"currency" json:"currency"`

	Status BookingStatus `bson:"status" json:"status"`

	// written once by the confirmation claim, immutable afterwards
	RazorpayOrderID   string `bson:"razorpay_order_id,omitempty" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string `bson:"razorpay_payment_id,omitempty" json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string `bson:"razorpay_signature,omitempty" json:"razorpay_signature,omitempty"`

	ReconciliationReason string     `bson:"reconciliation_reason,omitempty" json:"reconciliation_reason,omitempty"`
	ConfirmedAt          *time.Time `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	CancelledAt          *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CreatedAt            time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `bson:"updated_at" json:"updated_at"`
}

// PaymentProof is the gateway confirmation a client submits after paying.
type PaymentProof struct {
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// MatchesProof reports whether the booking already carries exactly this proof.
func (b *Booking) MatchesProof(p PaymentProof) bool {
	return b.RazorpayOrderID == p.OrderID &&
		b.RazorpayPaymentID == p.PaymentID &&
		b.RazorpaySignature == p.Signature
}

func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.UserID == userID
}

type Attendee struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

type BookingTotals struct {
	ConfirmedBookings int64 `bson:"count" json:"confirmed_bookings"`
	TotalEarnings     int64 `bson:"earnings" json:"total_earnings"`
}

type BookingRepo interface {
	CreateBooking(ctx context.Context, booking *Booking) (*Booking, error)
	GetBookingByID(ctx context.Context, id primitive.ObjectID) (*Booking, error)
	ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]*Booking, error)
	ListBookingsByStatus(ctx context.Context, status BookingStatus) ([]*Booking, error)
	// ClaimForConfirmation moves a pending booking to payment_verified and stores
	// the payment proof. It fails with ErrInvalidState when the booking is no
	// longer pending.
	ClaimForConfirmation(ctx context.Context, id primitive.ObjectID, proof PaymentProof) (*Booking, error)
	MarkConfirmed(ctx context.Context, id primitive.ObjectID) (*Booking, error)
	MarkReconciliationNeeded(ctx context.Context, id primitive.ObjectID, reason string) (*Booking, error)
	CancelBooking(ctx context.Context, id primitive.ObjectID) (*Booking, error)
	CancelStalePending(ctx context.Context, createdBefore time.Time) (int64, error)
	// FlagPaidCancellation moves a cancelled booking that never stored a payment
	// to reconciliation_needed, keeping the proof of the late payment.
	FlagPaidCancellation(ctx context.Context, id primitive.ObjectID, proof PaymentProof, reason string) (*Booking, error)
	// EscalateStaleVerified moves payment_verified bookings last touched before
	// updatedBefore to reconciliation_needed.
	EscalateStaleVerified(ctx context.Context, updatedBefore time.Time, reason string) (int64, error)
	ConfirmedTotals(ctx context.Context) (*BookingTotals, error)
}
