package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joshua-takyi/eventzo/internal/models"
)

// EventService is the thin admin surface for seeding events. Listing and
// search live elsewhere.
type EventService struct {
	events models.EventRepo
}

func NewEventService(events models.EventRepo) *EventService {
	return &EventService{
		events: events,
	}
}

func (es *EventService) CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	date, err := parseEventDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	now := time.Now()
	event := &models.Event{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Location:       strings.TrimSpace(req.Location),
		Category:       req.Category,
		Date:           date,
		Time:           req.Time,
		TicketPrice:    req.TicketPrice,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
		Status:         models.EventStatusUpcoming,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := models.Validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: invalid event data provided: %v", models.ErrValidation, err)
	}

	return es.events.CreateEvent(ctx, event)
}

func parseEventDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q must be RFC 3339 or YYYY-MM-DD", s)
}
