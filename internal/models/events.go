package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusSoldOut   EventStatus = "sold-out"
	EventStatusCompleted EventStatus = "completed"
)

type Event struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title" validate:"required"`
	Description    string             `bson:"description" json:"description"`
	Location       string             `bson:"location" json:"location" validate:"required"`
	Category       string             `bson:"category" json:"category"`
	Date           time.Time          `bson:"date" json:"date" validate:"required"`
	Time           string             `bson:"time" json:"time"` // e.g. "18:30"
	TicketPrice    int64              `bson:"ticket_price" json:"ticket_price" validate:"gt=0"`
	TotalSeats     int                `bson:"total_seats" json:"total_seats" validate:"gt=0"`
	AvailableSeats int                `bson:"available_seats" json:"available_seats" validate:"gte=0,ltefield=TotalSeats"`
	BookingCount   int                `bson:"booking_count" json:"booking_count" validate:"gte=0"`
	Status         EventStatus        `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsBookable reports whether new bookings may be opened for the event.
func (e *Event) IsBookable() bool {
	return e.Status == EventStatusUpcoming
}

type EventRepo interface {
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	GetEventByID(ctx context.Context, id primitive.ObjectID) (*Event, error)
	// CommitSeats decrements available seats and increments the booking count in a
	// single conditional update. It fails with ErrInsufficientInventory when fewer
	// than quantity seats remain at the instant of the update.
	CommitSeats(ctx context.Context, id primitive.ObjectID, quantity int) (*Event, error)
	CountEvents(ctx context.Context) (int64, error)
}
