package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventzo/internal/memstore"
	"github.com/joshua-takyi/eventzo/internal/models"
	"github.com/stretchr/testify/require"
)

const testKeySecret = "rzp_test_secret"

type fakeGateway struct {
	mu  sync.Mutex
	n   int
	err error
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*models.PaymentOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return nil, g.err
	}
	g.n++
	return &models.PaymentOrder{
		OrderID:  fmt.Sprintf("order_test%04d", g.n),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

type recordingDispatcher struct {
	mu       sync.Mutex
	bookings []*models.Booking
}

func (d *recordingDispatcher) Dispatch(b *models.Booking) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bookings = append(d.bookings, b)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.bookings)
}

type fixture struct {
	store      *memstore.Store
	gateway    *fakeGateway
	dispatcher *recordingDispatcher
	payments   *PaymentService
	bookings   *BookingService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	gateway := &fakeGateway{}
	dispatcher := &recordingDispatcher{}
	logger := discardLogger()

	payments := NewPaymentService(gateway, store, store, "rzp_test_key", testKeySecret, "INR", logger)
	inventory := NewInventoryService(store)
	bookings := NewBookingService(store, store, store, inventory, payments, dispatcher, logger)

	return &fixture{
		store:      store,
		gateway:    gateway,
		dispatcher: dispatcher,
		payments:   payments,
		bookings:   bookings,
	}
}

func (f *fixture) seedEvent(t *testing.T, seats int, price int64) *models.Event {
	t.Helper()

	event, err := f.store.CreateEvent(context.Background(), &models.Event{
		Title:          "Rooftop Jazz Night",
		Location:       "Skyline Terrace",
		Date:           time.Now().Add(72 * time.Hour),
		Time:           "19:30",
		TicketPrice:    price,
		TotalSeats:     seats,
		AvailableSeats: seats,
		Status:         models.EventStatusUpcoming,
	})
	require.NoError(t, err)
	return event
}

func attendee(userID uuid.UUID) models.Attendee {
	return models.Attendee{UserID: userID, Name: "Ama Mensah", Email: "ama@example.com"}
}

// pay opens a gateway order for the booking and returns the proof a client
// would post back after paying.
func (f *fixture) pay(t *testing.T, userID uuid.UUID, booking *models.Booking, paymentID string) models.PaymentProof {
	t.Helper()

	order, err := f.payments.CreateOrder(context.Background(), userID, models.CreateOrderRequest{BookingID: booking.ID.Hex()})
	require.NoError(t, err)
	return models.PaymentProof{
		OrderID:   order.OrderID,
		PaymentID: paymentID,
		Signature: f.payments.Sign(order.OrderID, paymentID),
	}
}

func (f *fixture) event(t *testing.T, event *models.Event) *models.Event {
	t.Helper()
	e, err := f.store.GetEventByID(context.Background(), event.ID)
	require.NoError(t, err)
	return e
}

func (f *fixture) booking(t *testing.T, booking *models.Booking) *models.Booking {
	t.Helper()
	b, err := f.store.GetBookingByID(context.Background(), booking.ID)
	require.NoError(t, err)
	return b
}
