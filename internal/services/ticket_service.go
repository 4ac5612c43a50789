package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventzo/internal/metrics"
	"github.com/joshua-takyi/eventzo/internal/models"
	"github.com/joshua-takyi/eventzo/internal/tickets"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultTicketMaxAttempts = 5
	ticketDispatchTimeout    = 45 * time.Second
)

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string, attachments ...Attachment) error
}

// TicketStore keeps a copy of the rendered PDF and returns where it lives.
type TicketStore interface {
	StoreTicket(ctx context.Context, bookingID string, pdf []byte) (string, error)
}

type TicketDispatcher interface {
	Dispatch(booking *models.Booking)
}

type TicketService struct {
	bookings    models.BookingRepo
	events      models.EventRepo
	mailer      Mailer
	store       TicketStore
	queue       RetryQueue
	maxAttempts int
	logger      *slog.Logger
	inflight    sync.WaitGroup
}

// NewTicketService wires the issuer. store and queue may be nil; without a
// queue, failed deliveries are only logged.
func NewTicketService(bookings models.BookingRepo, events models.EventRepo, mailer Mailer, store TicketStore, queue RetryQueue, maxAttempts int, logger *slog.Logger) *TicketService {
	if maxAttempts < 1 {
		maxAttempts = DefaultTicketMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketService{
		bookings:    bookings,
		events:      events,
		mailer:      mailer,
		store:       store,
		queue:       queue,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (ts *TicketService) IssueTicket(ctx context.Context, booking *models.Booking) (*tickets.Ticket, error) {
	if booking.Status != models.BookingStatusConfirmed {
		return nil, fmt.Errorf("booking %s is %s, tickets are issued for confirmed bookings: %w", booking.ID.Hex(), booking.Status, models.ErrInvalidState)
	}

	event, err := ts.events.GetEventByID(ctx, booking.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event for ticket: %w", err)
	}

	ticket := &tickets.Ticket{
		BookingID:     booking.ID.Hex(),
		EventTitle:    event.Title,
		EventDate:     event.Date,
		EventTime:     event.Time,
		Location:      event.Location,
		AttendeeName:  booking.AttendeeName,
		AttendeeEmail: booking.AttendeeEmail,
		Quantity:      booking.Quantity,
		TotalAmount:   booking.TotalAmount,
		Currency:      booking.Currency,
	}
	ticket.PDF, err = tickets.RenderPDF(ticket)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (ts *TicketService) DeliverTicket(ctx context.Context, ticket *tickets.Ticket, recipientEmail string) error {
	if recipientEmail == "" {
		return fmt.Errorf("%w: booking %s has no attendee email", models.ErrValidation, ticket.BookingID)
	}
	if ts.mailer == nil {
		return fmt.Errorf("mailer is not configured")
	}

	subject := fmt.Sprintf("Your ticket for %s", ticket.EventTitle)
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your booking for <strong>%s</strong> on %s %s at %s is confirmed.</p>`+
			`<p>Tickets: %d<br>Booking: %s</p><p>Your ticket is attached. Show the QR code at the entrance.</p>`,
		html.EscapeString(ticket.AttendeeName),
		html.EscapeString(ticket.EventTitle),
		ticket.EventDate.Format("02 Jan 2006"),
		html.EscapeString(ticket.EventTime),
		html.EscapeString(ticket.Location),
		ticket.Quantity,
		ticket.BookingID,
	)
	return ts.mailer.Send(ctx, recipientEmail, subject, body, Attachment{
		Name:        ticket.FileName(),
		ContentType: "application/pdf",
		Data:        ticket.PDF,
	})
}

// Dispatch issues and delivers the ticket in the background. The booking
// record is never touched; failures go to the retry queue.
func (ts *TicketService) Dispatch(booking *models.Booking) {
	b := *booking
	ts.inflight.Add(1)
	go func() {
		defer ts.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), ticketDispatchTimeout)
		defer cancel()

		job := DeliveryJob{BookingID: b.ID.Hex(), Attempt: 1}
		if err := ts.deliver(ctx, &b); err != nil {
			ts.retry(job, err)
		}
	}()
}

// Wait blocks until every dispatched delivery has finished.
func (ts *TicketService) Wait() {
	ts.inflight.Wait()
}

// Redeliver handles one job from the retry queue.
func (ts *TicketService) Redeliver(ctx context.Context, job DeliveryJob) error {
	id, err := primitive.ObjectIDFromHex(job.BookingID)
	if err != nil {
		ts.logger.Error("dropping malformed ticket job", "booking_id", job.BookingID, "error", err)
		return nil
	}
	booking, err := ts.bookings.GetBookingByID(ctx, id)
	if err != nil {
		ts.retry(job, err)
		return err
	}
	if err := ts.deliver(ctx, booking); err != nil {
		ts.retry(job, err)
		return err
	}
	return nil
}

// Resend queues a fresh delivery for the owner of a confirmed booking.
func (ts *TicketService) Resend(ctx context.Context, bookingID string, userID uuid.UUID) error {
	booking, err := ts.ownedBooking(ctx, bookingID, userID)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return fmt.Errorf("booking %s is %s: %w", booking.ID.Hex(), booking.Status, models.ErrInvalidState)
	}
	ts.Dispatch(booking)
	return nil
}

func (ts *TicketService) RenderForUser(ctx context.Context, bookingID string, userID uuid.UUID) (*tickets.Ticket, error) {
	booking, err := ts.ownedBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	return ts.IssueTicket(ctx, booking)
}

func (ts *TicketService) ownedBooking(ctx context.Context, bookingID string, userID uuid.UUID) (*models.Booking, error) {
	id, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking id", models.ErrValidation)
	}
	booking, err := ts.bookings.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(userID) {
		return nil, fmt.Errorf("booking %s: %w", id.Hex(), models.ErrForbidden)
	}
	return booking, nil
}

func (ts *TicketService) deliver(ctx context.Context, booking *models.Booking) error {
	ticket, err := ts.IssueTicket(ctx, booking)
	if err != nil {
		return err
	}

	if ts.store != nil {
		url, err := ts.store.StoreTicket(ctx, ticket.BookingID, ticket.PDF)
		if err != nil {
			// the mail still carries the pdf
			ts.logger.Warn("failed to store ticket pdf", "booking_id", ticket.BookingID, "error", err)
		} else {
			ticket.URL = url
		}
	}

	if err := ts.DeliverTicket(ctx, ticket, booking.AttendeeEmail); err != nil {
		return err
	}

	metrics.TicketDeliveries.WithLabelValues("sent").Inc()
	ts.logger.Info("ticket delivered", "booking_id", ticket.BookingID, "url", ticket.URL)
	return nil
}

func (ts *TicketService) retry(job DeliveryJob, cause error) {
	metrics.TicketDeliveries.WithLabelValues("failed").Inc()

	if job.Attempt >= ts.maxAttempts {
		ts.logger.Error("giving up on ticket delivery",
			"booking_id", job.BookingID,
			"attempts", job.Attempt,
			"error", cause,
		)
		return
	}
	if ts.queue == nil {
		ts.logger.Warn("ticket delivery failed, no retry queue configured",
			"booking_id", job.BookingID,
			"error", cause,
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	next := DeliveryJob{BookingID: job.BookingID, Attempt: job.Attempt + 1}
	if err := ts.queue.Enqueue(ctx, next); err != nil {
		ts.logger.Error("failed to queue ticket retry",
			"booking_id", job.BookingID,
			"error", err,
			"cause", cause,
		)
		return
	}
	ts.logger.Warn("ticket delivery failed, retry queued",
		"booking_id", job.BookingID,
		"attempt", next.Attempt,
		"due_in", RetryBackoff(next.Attempt).String(),
		"error", cause,
	)
}
