package services

import (
	"context"
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

const (
	DefaultPendingTTL = 30 * time.Minute
	// DefaultConfirmationGrace is how long a booking may sit in
	// payment_verified before operators are told about it.
	DefaultConfirmationGrace = 10 * time.Minute
)

// BookingService owns every booking state transition.
type BookingService struct {
	bookings      models.BookingRepo
	events        models.EventRepo
	notifications models.NotificationRepo
	inventory     *InventoryService
	payments      *PaymentService
	tickets       TicketDispatcher
	profiles      models.ProfileDirectory
	logger        *slog.Logger
	now           func() time.Time
}

type DashboardStats struct {
	ConfirmedBookings      int64 `json:"confirmed_bookings"`
	TotalEarnings          int64 `json:"total_earnings"`
	TotalEvents            int64 `json:"total_events"`
	PendingReconciliations int   `json:"pending_reconciliations"`
}

// NewBookingService wires the ledger. tickets may be nil, in which case
// confirmed bookings get no ticket.
func NewBookingService(
	bookings models.BookingRepo,
	events models.EventRepo,
	notifications models.NotificationRepo,
	inventory *InventoryService,
	payments *PaymentService,
	tickets TicketDispatcher,
	logger *slog.Logger,
) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		bookings:      bookings,
		events:        events,
		notifications: notifications,
		inventory:     inventory,
		payments:      payments,
		tickets:       tickets,
		logger:        logger,
		now:           time.Now,
	}
}

// UseProfiles lets CreateBooking fill attendee details missing from the token.
func (bs *BookingService) UseProfiles(profiles models.ProfileDirectory) {
	bs.profiles = profiles
}

func (bs *BookingService) CreateBooking(ctx context.Context, attendee models.Attendee, eventID string, quantity int) (*models.Booking, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", models.ErrValidation)
	}
	if attendee.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", models.ErrValidation)
	}
	eid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid event id", models.ErrValidation)
	}

	event, err := bs.inventory.CheckAvailability(ctx, eid, quantity)
	if err != nil {
		return nil, err
	}

	price, err := ComputePrice(event.TicketPrice, quantity)
	if err != nil {
		return nil, err
	}

	attendee = bs.resolveAttendee(ctx, attendee)
	now := bs.now()
	booking := &models.Booking{
		UserID:        attendee.UserID,
		EventID:       event.ID,
		AttendeeName:  attendee.Name,
		AttendeeEmail: attendee.Email,
		Quantity:      quantity,
		TicketPrice:   price.TicketPrice,
		Subtotal:      price.Subtotal,
		PlatformFee:   price.PlatformFee,
		TotalAmount:   price.Total,
		Currency:      bs.payments.Currency(),
		Status:        models.BookingStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := models.Validate.Struct(booking); err != nil {
		return nil, fmt.Errorf("%w: invalid booking data provided: %v", models.ErrValidation, err)
	}

	created, err := bs.bookings.CreateBooking(ctx, booking)
	if err != nil {
		return nil, err
	}
	metrics.BookingsCreated.Inc()

	bs.logger.Info("booking created",
		"booking_id", created.ID.Hex(),
		"event_id", created.EventID.Hex(),
		"user_id", created.UserID,
		"quantity", created.Quantity,
		"total_amount", created.TotalAmount,
	)
	return created, nil
}

func (bs *BookingService) resolveAttendee(ctx context.Context, a models.Attendee) models.Attendee {
	if (a.Name != "" && a.Email != "") || bs.profiles == nil {
		return a
	}
	profile, err := bs.profiles.GetProfile(ctx, a.UserID)
	if err != nil {
		bs.logger.Debug("attendee profile lookup failed", "user_id", a.UserID, "error", err)
		return a
	}
	if a.Name == "" {
		a.Name = strings.TrimSpace(profile.FullName)
	}
	if a.Email == "" {
		a.Email = strings.TrimSpace(profile.Email)
	}
	return a
}

// ConfirmBooking verifies proof, claims the pending booking and commits its
// seats. A payment that verifies but finds no seats moves the booking to
// reconciliation_needed and returns a *models.ReconciliationError.
func (bs *BookingService) ConfirmBooking(ctx context.Context, bookingID string, userID uuid.UUID, proof models.PaymentProof) (*models.Booking, error) {
	id, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking id", models.ErrValidation)
	}

	booking, err := bs.bookings.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(userID) {
		return nil, fmt.Errorf("booking %s: %w", id.Hex(), models.ErrForbidden)
	}
	switch booking.Status {
	case models.BookingStatusPending:
	case models.BookingStatusCancelled:
		// a late payment still has to reach an operator
		if err := bs.verify(ctx, booking, proof); err != nil {
			return nil, err
		}
		return nil, bs.flagPaidCancellation(ctx, booking, proof)
	default:
		return settled(booking, proof)
	}

	if err := bs.verify(ctx, booking, proof); err != nil {
		return nil, err
	}

	claimed, err := bs.bookings.ClaimForConfirmation(ctx, booking.ID, proof)
	if errors.Is(err, models.ErrInvalidState) {
		// someone else moved it first
		current, gerr := bs.bookings.GetBookingByID(ctx, booking.ID)
		if gerr != nil {
			return nil, gerr
		}
		if current.Status == models.BookingStatusCancelled {
			return nil, bs.flagPaidCancellation(ctx, current, proof)
		}
		return settled(current, proof)
	}
	if err != nil {
		return nil, err
	}

	event, err := bs.inventory.Commit(ctx, claimed.EventID, claimed.Quantity)
	if err != nil {
		reason := fmt.Sprintf("seat commit failed after payment %s: %v", proof.PaymentID, err)
		return nil, bs.reconcile(ctx, claimed, proof, reason)
	}

	confirmed, err := bs.bookings.MarkConfirmed(ctx, claimed.ID)
	if err != nil {
		// seats are taken and the payment is good; an operator has to finish this one
		reason := fmt.Sprintf("seats committed but confirmation write failed: %v", err)
		return nil, bs.reconcile(ctx, claimed, proof, reason)
	}

	bs.payments.RecordAttempt(ctx, confirmed, proof, nil)
	metrics.BookingsConfirmed.Inc()
	bs.logger.Info("booking confirmed",
		"booking_id", confirmed.ID.Hex(),
		"event_id", confirmed.EventID.Hex(),
		"payment_id", proof.PaymentID,
		"available_seats", event.AvailableSeats,
	)

	if err := bs.notifications.CreateNotification(ctx, models.BookingNotification(confirmed, event.Title)); err != nil {
		bs.logger.Warn("failed to record booking notification", "booking_id", confirmed.ID.Hex(), "error", err)
	}
	if bs.tickets != nil {
		bs.tickets.Dispatch(confirmed)
	}
	return confirmed, nil
}

// settled reports the outcome of confirming a booking that is no longer pending.
func settled(b *models.Booking, proof models.PaymentProof) (*models.Booking, error) {
	switch b.Status {
	case models.BookingStatusConfirmed:
		if b.MatchesProof(proof) {
			return b, nil
		}
		return nil, fmt.Errorf("booking %s: %w", b.ID.Hex(), models.ErrAlreadyConfirmed)
	case models.BookingStatusReconciliationNeeded:
		return nil, &models.ReconciliationError{BookingID: b.ID.Hex(), Reason: b.ReconciliationReason}
	case models.BookingStatusPaymentVerified:
		return nil, fmt.Errorf("booking %s: confirmation in progress: %w", b.ID.Hex(), models.ErrInvalidState)
	case models.BookingStatusCancelled:
		return nil, fmt.Errorf("booking %s is cancelled: %w", b.ID.Hex(), models.ErrInvalidState)
	default:
		return nil, fmt.Errorf("booking %s is %s: %w", b.ID.Hex(), b.Status, models.ErrInvalidState)
	}
}

func (bs *BookingService) verify(ctx context.Context, b *models.Booking, proof models.PaymentProof) error {
	err := bs.payments.Verify(ctx, proof, b.ID, MinorUnits(b.TotalAmount))
	if err != nil {
		bs.payments.RecordAttempt(ctx, b, proof, err)
		bs.logger.Warn("payment verification failed",
			"booking_id", b.ID.Hex(),
			"order_id", proof.OrderID,
			"status", b.Status,
			"error", err,
		)
	}
	return err
}

func (bs *BookingService) reconcile(ctx context.Context, b *models.Booking, proof models.PaymentProof, reason string) error {
	if _, err := bs.bookings.MarkReconciliationNeeded(ctx, b.ID, reason); err != nil {
		// left in payment_verified; EscalateStuckConfirmations picks it up
		bs.logger.Error("failed to persist reconciliation state",
			"alert", "reconciliation",
			"booking_id", b.ID.Hex(),
			"error", err,
		)
	}
	return bs.raiseReconciliation(ctx, b, proof, reason)
}

// flagPaidCancellation records a verified payment for a booking that was
// cancelled before the payment arrived.
func (bs *BookingService) flagPaidCancellation(ctx context.Context, b *models.Booking, proof models.PaymentProof) error {
	reason := fmt.Sprintf("payment %s captured after the booking was cancelled", proof.PaymentID)

	_, err := bs.bookings.FlagPaidCancellation(ctx, b.ID, proof, reason)
	if errors.Is(err, models.ErrInvalidState) {
		// a concurrent retry flagged it first
		current, gerr := bs.bookings.GetBookingByID(ctx, b.ID)
		if gerr != nil {
			return gerr
		}
		_, serr := settled(current, proof)
		return serr
	}
	if err != nil {
		bs.logger.Error("failed to persist reconciliation state",
			"alert", "reconciliation",
			"booking_id", b.ID.Hex(),
			"error", err,
		)
	}
	return bs.raiseReconciliation(ctx, b, proof, reason)
}

func (bs *BookingService) raiseReconciliation(ctx context.Context, b *models.Booking, proof models.PaymentProof, reason string) error {
	bs.payments.RecordAttempt(ctx, b, proof, nil)
	metrics.ReconciliationNeeded.Inc()

	bs.logger.Error("payment captured without seats",
		"alert", "reconciliation",
		"booking_id", b.ID.Hex(),
		"event_id", b.EventID.Hex(),
		"user_id", b.UserID,
		"order_id", proof.OrderID,
		"payment_id", proof.PaymentID,
		"quantity", b.Quantity,
		"total_amount", b.TotalAmount,
		"reason", reason,
	)
	return &models.ReconciliationError{BookingID: b.ID.Hex(), Reason: reason}
}

func (bs *BookingService) GetBookingForUser(ctx context.Context, bookingID string, userID uuid.UUID) (*models.Booking, error) {
	id, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking id", models.ErrValidation)
	}
	booking, err := bs.bookings.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(userID) {
		return nil, fmt.Errorf("booking %s: %w", id.Hex(), models.ErrForbidden)
	}
	return booking, nil
}

func (bs *BookingService) ListBookingsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error) {
	return bs.bookings.ListBookingsByUser(ctx, userID)
}

func (bs *BookingService) CancelBooking(ctx context.Context, bookingID string, userID uuid.UUID) (*models.Booking, error) {
	booking, err := bs.GetBookingForUser(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, fmt.Errorf("booking %s is %s, only pending bookings can be cancelled: %w", booking.ID.Hex(), booking.Status, models.ErrInvalidState)
	}

	cancelled, err := bs.bookings.CancelBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	bs.logger.Info("booking cancelled", "booking_id", cancelled.ID.Hex(), "user_id", userID)
	return cancelled, nil
}

// ExpireStalePending cancels pending bookings older than ttl.
func (bs *BookingService) ExpireStalePending(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, fmt.Errorf("%w: ttl must be positive", models.ErrValidation)
	}
	cutoff := bs.now().Add(-ttl)

	n, err := bs.bookings.CancelStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.StalePendingExpired.Add(float64(n))
	bs.logger.Info("expired stale pending bookings", "count", n, "created_before", cutoff)
	return n, nil
}

// EscalateStuckConfirmations moves bookings that have sat in payment_verified
// for longer than grace to reconciliation_needed. Such a booking has a verified
// payment but its confirmation never finished.
func (bs *BookingService) EscalateStuckConfirmations(ctx context.Context, grace time.Duration) (int64, error) {
	if grace <= 0 {
		return 0, fmt.Errorf("%w: grace must be positive", models.ErrValidation)
	}
	cutoff := bs.now().Add(-grace)
	reason := fmt.Sprintf("confirmation stalled after payment verification, no progress since %s", cutoff.UTC().Format(time.RFC3339))

	n, err := bs.bookings.EscalateStaleVerified(ctx, cutoff, reason)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.ReconciliationNeeded.Add(float64(n))
		bs.logger.Error("stalled confirmations escalated",
			"alert", "reconciliation",
			"count", n,
			"updated_before", cutoff,
		)
	}
	return n, nil
}

func (bs *BookingService) ListReconciliations(ctx context.Context) ([]*models.Booking, error) {
	return bs.bookings.ListBookingsByStatus(ctx, models.BookingStatusReconciliationNeeded)
}

func (bs *BookingService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	totals, err := bs.bookings.ConfirmedTotals(ctx)
	if err != nil {
		return nil, err
	}
	events, err := bs.events.CountEvents(ctx)
	if err != nil {
		return nil, err
	}
	open, err := bs.ListReconciliations(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		ConfirmedBookings:      totals.ConfirmedBookings,
		TotalEarnings:          totals.TotalEarnings,
		TotalEvents:            events,
		PendingReconciliations: len(open),
	}, nil
}
