package services

import (
	"fmt"

	"github.com/joshua-takyi/eventzo/internal/models"
	"github.com/shopspring/decimal"
)

// PlatformFeeRate is applied to the subtotal of every booking.
var PlatformFeeRate = decimal.RequireFromString("0.05")

type Price struct {
	TicketPrice int64
	Quantity    int
	Subtotal    int64
	PlatformFee int64
	Total       int64
}

// ComputePrice prices quantity tickets in whole currency units. The fee is
// rounded half up to a whole unit.
func ComputePrice(ticketPrice int64, quantity int) (Price, error) {
	if ticketPrice <= 0 {
		return Price{}, fmt.Errorf("%w: ticket price must be positive", models.ErrValidation)
	}
	if quantity < 1 {
		return Price{}, fmt.Errorf("%w: quantity must be at least 1", models.ErrValidation)
	}

	subtotal := ticketPrice * int64(quantity)
	fee := decimal.NewFromInt(subtotal).Mul(PlatformFeeRate).Round(0).IntPart()

	return Price{
		TicketPrice: ticketPrice,
		Quantity:    quantity,
		Subtotal:    subtotal,
		PlatformFee: fee,
		Total:       subtotal + fee,
	}, nil
}

// MinorUnits converts a whole-unit amount to the gateway's smallest unit.
func MinorUnits(amount int64) int64 {
	return amount * 100
}
