package services

import (
	"testing"

	"github.com/joshua-takyi/eventzo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePrice(t *testing.T) {
	tests := []struct {
		name        string
		ticketPrice int64
		quantity    int
		subtotal    int64
		fee         int64
		total       int64
	}{
		{"three at 500", 500, 3, 1500, 75, 1575},
		{"single ticket", 1000, 1, 1000, 50, 1050},
		{"fee rounds half up", 10, 1, 10, 1, 11},
		{"fee rounds down below half", 29, 1, 29, 1, 30},
		{"fee rounds up above half", 31, 1, 31, 2, 33},
		{"small fee rounds to zero", 9, 1, 9, 0, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ComputePrice(tt.ticketPrice, tt.quantity)
			require.NoError(t, err)
			assert.Equal(t, tt.subtotal, p.Subtotal)
			assert.Equal(t, tt.fee, p.PlatformFee)
			assert.Equal(t, tt.total, p.Total)
		})
	}
}

func TestComputePrice_Invalid(t *testing.T) {
	_, err := ComputePrice(500, 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = ComputePrice(0, 1)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(157500), MinorUnits(1575))
}
