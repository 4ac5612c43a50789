package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventzo/internal/memstore"
	"github.com/joshua-takyi/eventzo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to          string
	subject     string
	attachments []Attachment
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, htmlBody string, attachments ...Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, attachments: attachments})
	return nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []DeliveryJob
}

func (q *fakeQueue) Enqueue(ctx context.Context, job DeliveryJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeTicketStore struct{}

func (fakeTicketStore) StoreTicket(ctx context.Context, bookingID string, pdf []byte) (string, error) {
	return "https://files.example.com/tickets/" + bookingID + ".pdf", nil
}

func seedConfirmed(t *testing.T, store *memstore.Store, status models.BookingStatus) (*models.Booking, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	event, err := store.CreateEvent(ctx, &models.Event{
		Title:          "Rooftop Jazz Night",
		Location:       "Skyline Terrace",
		Date:           time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC),
		Time:           "19:30",
		TicketPrice:    500,
		TotalSeats:     10,
		AvailableSeats: 8,
		BookingCount:   2,
		Status:         models.EventStatusUpcoming,
	})
	require.NoError(t, err)

	user := uuid.New()
	booking, err := store.CreateBooking(ctx, &models.Booking{
		UserID:        user,
		EventID:       event.ID,
		AttendeeName:  "Ama Mensah",
		AttendeeEmail: "ama@example.com",
		Quantity:      2,
		TicketPrice:   500,
		Subtotal:      1000,
		PlatformFee:   50,
		TotalAmount:   1050,
		Currency:      "INR",
		Status:        status,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	})
	require.NoError(t, err)
	return booking, user
}

func TestDispatch_DeliversTicket(t *testing.T) {
	store := memstore.New()
	mailer := &fakeMailer{}
	queue := &fakeQueue{}
	svc := NewTicketService(store, store, mailer, fakeTicketStore{}, queue, 3, discardLogger())

	booking, _ := seedConfirmed(t, store, models.BookingStatusConfirmed)
	svc.Dispatch(booking)
	svc.Wait()

	require.Len(t, mailer.sent, 1)
	mail := mailer.sent[0]
	assert.Equal(t, "ama@example.com", mail.to)
	assert.Equal(t, "Your ticket for Rooftop Jazz Night", mail.subject)
	require.Len(t, mail.attachments, 1)
	assert.Equal(t, "ticket-"+booking.ID.Hex()+".pdf", mail.attachments[0].Name)
	assert.True(t, bytes.HasPrefix(mail.attachments[0].Data, []byte("%PDF")))
	assert.Empty(t, queue.jobs)
}

func TestDispatch_FailureQueuesRetryAndLeavesBooking(t *testing.T) {
	store := memstore.New()
	mailer := &fakeMailer{err: errors.New("smtp: connection refused")}
	queue := &fakeQueue{}
	svc := NewTicketService(store, store, mailer, nil, queue, 3, discardLogger())

	booking, _ := seedConfirmed(t, store, models.BookingStatusConfirmed)
	svc.Dispatch(booking)
	svc.Wait()

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, DeliveryJob{BookingID: booking.ID.Hex(), Attempt: 2}, queue.jobs[0])

	b, err := store.GetBookingByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
}

func TestRedeliver_StopsAtMaxAttempts(t *testing.T) {
	store := memstore.New()
	mailer := &fakeMailer{err: errors.New("smtp: 421 try later")}
	queue := &fakeQueue{}
	svc := NewTicketService(store, store, mailer, nil, queue, 3, discardLogger())
	booking, _ := seedConfirmed(t, store, models.BookingStatusConfirmed)
	ctx := context.Background()

	err := svc.Redeliver(ctx, DeliveryJob{BookingID: booking.ID.Hex(), Attempt: 2})
	assert.Error(t, err)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, 3, queue.jobs[0].Attempt)

	err = svc.Redeliver(ctx, DeliveryJob{BookingID: booking.ID.Hex(), Attempt: 3})
	assert.Error(t, err)
	assert.Len(t, queue.jobs, 1, "last attempt must not be re-queued")

	mailer.err = nil
	require.NoError(t, svc.Redeliver(ctx, DeliveryJob{BookingID: booking.ID.Hex(), Attempt: 3}))
	assert.Len(t, mailer.sent, 1)

	assert.NoError(t, svc.Redeliver(ctx, DeliveryJob{BookingID: "garbage", Attempt: 1}))
}

func TestIssueTicket_OnlyForConfirmed(t *testing.T) {
	store := memstore.New()
	svc := NewTicketService(store, store, nil, nil, nil, 0, discardLogger())
	booking, _ := seedConfirmed(t, store, models.BookingStatusPending)

	_, err := svc.IssueTicket(context.Background(), booking)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestRenderForUserAndResend(t *testing.T) {
	store := memstore.New()
	mailer := &fakeMailer{}
	svc := NewTicketService(store, store, mailer, nil, nil, 0, discardLogger())
	booking, owner := seedConfirmed(t, store, models.BookingStatusConfirmed)
	ctx := context.Background()

	ticket, err := svc.RenderForUser(ctx, booking.ID.Hex(), owner)
	require.NoError(t, err)
	assert.Equal(t, "Skyline Terrace", ticket.Location)
	assert.Equal(t, 2, ticket.Quantity)
	assert.True(t, bytes.HasPrefix(ticket.PDF, []byte("%PDF")))

	_, err = svc.RenderForUser(ctx, booking.ID.Hex(), uuid.New())
	assert.ErrorIs(t, err, models.ErrForbidden)

	assert.ErrorIs(t, svc.Resend(ctx, booking.ID.Hex(), uuid.New()), models.ErrForbidden)
	require.NoError(t, svc.Resend(ctx, booking.ID.Hex(), owner))
	svc.Wait()
	assert.Len(t, mailer.sent, 1)

	pending, pendingOwner := seedConfirmed(t, store, models.BookingStatusPending)
	assert.ErrorIs(t, svc.Resend(ctx, pending.ID.Hex(), pendingOwner), models.ErrInvalidState)
}

func TestDeliverTicket_RequiresEmail(t *testing.T) {
	store := memstore.New()
	svc := NewTicketService(store, store, &fakeMailer{}, nil, nil, 0, discardLogger())
	booking, _ := seedConfirmed(t, store, models.BookingStatusConfirmed)

	ticket, err := svc.IssueTicket(context.Background(), booking)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeliverTicket(context.Background(), ticket, ""), models.ErrValidation)
}
