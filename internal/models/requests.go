package models

type CreateBookingRequest struct {
	EventID  string `json:"eventId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

// CreateOrderRequest names the booking to pay for. Amount is optional and only
// cross-checked against the booking; it is never trusted.
type CreateOrderRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
	Amount    *int64 `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Receipt   string `json:"receipt,omitempty" validate:"omitempty,max=40"`
}

type CreateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location" binding:"required"`
	Category    string `json:"category"`
	Date        string `json:"date" binding:"required"` // RFC 3339 or 2006-01-02
	Time        string `json:"time"`
	TicketPrice int64  `json:"ticketPrice" binding:"required,gt=0"`
	TotalSeats  int    `json:"totalSeats" binding:"required,gt=0"`
}
