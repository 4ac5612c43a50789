package services

import (
	"context"
	"fmt"

	"github.com/joshua-takyi/eventzo/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InventoryService struct {
	events models.EventRepo
}

func NewInventoryService(events models.EventRepo) *InventoryService {
	return &InventoryService{
		events: events,
	}
}

// CheckAvailability is advisory only. Seats are not held; the authoritative
// check happens in Commit.
func (is *InventoryService) CheckAvailability(ctx context.Context, eventID primitive.ObjectID, quantity int) (*models.Event, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", models.ErrValidation)
	}

	event, err := is.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !event.IsBookable() {
		if event.Status == models.EventStatusSoldOut {
			return nil, fmt.Errorf("event %q is sold out: %w", event.Title, models.ErrInsufficientInventory)
		}
		return nil, fmt.Errorf("%w: event %q is %s and not open for booking", models.ErrValidation, event.Title, event.Status)
	}

	if quantity > event.AvailableSeats {
		return nil, fmt.Errorf("requested %d seats, %d available: %w", quantity, event.AvailableSeats, models.ErrInsufficientInventory)
	}
	return event, nil
}

// Commit takes quantity seats in one conditional update and returns the event
// as it stands after the decrement.
func (is *InventoryService) Commit(ctx context.Context, eventID primitive.ObjectID, quantity int) (*models.Event, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", models.ErrValidation)
	}
	return is.events.CommitSeats(ctx, eventID, quantity)
}
