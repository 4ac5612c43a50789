package models

import (
	"context"

	"github.com/google/uuid"
)

// Profile is the slice of the user profile the booking flow needs: who to put on
// the ticket and where to send it.
type Profile struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullname"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone_number"`
}

type ProfileDirectory interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
}
