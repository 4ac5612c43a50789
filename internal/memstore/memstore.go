// Package memstore is an in-process implementation of the booking repositories.
// It backs local development (STORE_DRIVER=memory) and the service tests, and
// keeps the same conditional-update semantics as the Mongo repositories.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventzo/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu            sync.Mutex
	events        map[primitive.ObjectID]models.Event
	bookings      map[primitive.ObjectID]models.Booking
	orders        map[string]models.PaymentOrder
	attempts      []models.PaymentAttempt
	notifications []models.Notification
}

func New() *Store {
	return &Store{
		events:   map[primitive.ObjectID]models.Event{},
		bookings: map[primitive.ObjectID]models.Booking{},
		orders:   map[string]models.PaymentOrder{},
	}
}

// events

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	s.events[event.ID] = *event
	out := *event
	return &out, nil
}

func (s *Store) GetEventByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id.Hex(), models.ErrNotFound)
	}
	return &e, nil
}

func (s *Store) CommitSeats(ctx context.Context, id primitive.ObjectID, quantity int) (*models.Event, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", models.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id.Hex(), models.ErrNotFound)
	}
	if e.Status != models.EventStatusUpcoming || e.AvailableSeats < quantity {
		return nil, fmt.Errorf("event %s: %w", id.Hex(), models.ErrInsufficientInventory)
	}
	e.AvailableSeats -= quantity
	e.BookingCount += quantity
	if e.AvailableSeats == 0 {
		e.Status = models.EventStatusSoldOut
	}
	e.UpdatedAt = time.Now()
	s.events[id] = e
	return &e, nil
}

func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.events)), nil
}

// SetTicketPrice plays the admin collaborator editing an event.
func (s *Store) SetTicketPrice(id primitive.ObjectID, price int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.events[id]; ok {
		e.TicketPrice = price
		s.events[id] = e
	}
}

// bookings

func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	s.bookings[booking.ID] = *booking
	out := *booking
	return &out, nil
}

func (s *Store) GetBookingByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id.Hex(), models.ErrNotFound)
	}
	return &b, nil
}

func (s *Store) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error) {
	out := s.filterBookings(func(b models.Booking) bool { return b.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListBookingsByStatus(ctx context.Context, status models.BookingStatus) ([]*models.Booking, error) {
	out := s.filterBookings(func(b models.Booking) bool { return b.Status == status })
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) filterBookings(keep func(models.Booking) bool) []*models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			b := b
			out = append(out, &b)
		}
	}
	return out
}

func (s *Store) ClaimForConfirmation(ctx context.Context, id primitive.ObjectID, proof models.PaymentProof) (*models.Booking, error) {
	return s.transition(id, models.BookingStatusPending, func(b *models.Booking) bool {
		if b.RazorpayPaymentID != "" {
			return false
		}
		b.Status = models.BookingStatusPaymentVerified
		b.RazorpayOrderID = proof.OrderID
		b.RazorpayPaymentID = proof.PaymentID
		b.RazorpaySignature = proof.Signature
		return true
	})
}

func (s *Store) MarkConfirmed(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	return s.transition(id, models.BookingStatusPaymentVerified, func(b *models.Booking) bool {
		now := time.Now()
		b.Status = models.BookingStatusConfirmed
		b.ConfirmedAt = &now
		return true
	})
}

func (s *Store) MarkReconciliationNeeded(ctx context.Context, id primitive.ObjectID, reason string) (*models.Booking, error) {
	return s.transition(id, models.BookingStatusPaymentVerified, func(b *models.Booking) bool {
		b.Status = models.BookingStatusReconciliationNeeded
		b.ReconciliationReason = reason
		return true
	})
}

func (s *Store) CancelBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	return s.transition(id, models.BookingStatusPending, func(b *models.Booking) bool {
		now := time.Now()
		b.Status = models.BookingStatusCancelled
		b.CancelledAt = &now
		return true
	})
}

func (s *Store) CancelStalePending(ctx context.Context, createdBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := time.Now()
	for id, b := range s.bookings {
		if b.Status == models.BookingStatusPending && b.CreatedAt.Before(createdBefore) {
			b.Status = models.BookingStatusCancelled
			b.CancelledAt = &now
			b.UpdatedAt = now
			s.bookings[id] = b
			n++
		}
	}
	return n, nil
}

func (s *Store) FlagPaidCancellation(ctx context.Context, id primitive.ObjectID, proof models.PaymentProof, reason string) (*models.Booking, error) {
	return s.transition(id, models.BookingStatusCancelled, func(b *models.Booking) bool {
		if b.RazorpayPaymentID != "" {
			return false
		}
		b.Status = models.BookingStatusReconciliationNeeded
		b.RazorpayOrderID = proof.OrderID
		b.RazorpayPaymentID = proof.PaymentID
		b.RazorpaySignature = proof.Signature
		b.ReconciliationReason = reason
		return true
	})
}

func (s *Store) EscalateStaleVerified(ctx context.Context, updatedBefore time.Time, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := time.Now()
	for id, b := range s.bookings {
		if b.Status == models.BookingStatusPaymentVerified && b.UpdatedAt.Before(updatedBefore) {
			b.Status = models.BookingStatusReconciliationNeeded
			b.ReconciliationReason = reason
			b.UpdatedAt = now
			s.bookings[id] = b
			n++
		}
	}
	return n, nil
}

func (s *Store) ConfirmedTotals(ctx context.Context) (*models.BookingTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := &models.BookingTotals{}
	for _, b := range s.bookings {
		if b.Status == models.BookingStatusConfirmed {
			totals.ConfirmedBookings++
			totals.TotalEarnings += b.TotalAmount
		}
	}
	return totals, nil
}

func (s *Store) transition(id primitive.ObjectID, from models.BookingStatus, apply func(*models.Booking) bool) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id.Hex(), models.ErrNotFound)
	}
	if b.Status != from || !apply(&b) {
		return nil, fmt.Errorf("booking %s: %w", id.Hex(), models.ErrInvalidState)
	}
	b.UpdatedAt = time.Now()
	s.bookings[id] = b
	out := b
	return &out, nil
}

// payments

func (s *Store) SaveOrder(ctx context.Context, order *models.PaymentOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.OrderID]; exists {
		return fmt.Errorf("payment order %s already exists", order.OrderID)
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.orders[order.OrderID] = *order
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("payment order %s: %w", orderID, models.ErrNotFound)
	}
	return &o, nil
}

func (s *Store) RecordAttempt(ctx context.Context, attempt *models.PaymentAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt.ID.IsZero() {
		attempt.ID = primitive.NewObjectID()
	}
	s.attempts = append(s.attempts, *attempt)
	return nil
}

func (s *Store) Attempts() []models.PaymentAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PaymentAttempt(nil), s.attempts...)
}

// notifications

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}
