package tickets

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPDF(t *testing.T) {
	ticket := &Ticket{
		BookingID:    "6650b3f1c2a4e0a1b2c3d4e5",
		EventTitle:   "Rooftop Jazz Night",
		EventDate:    time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC),
		EventTime:    "19:30",
		Location:     "Skyline Terrace",
		AttendeeName: "Ama Mensah",
		Quantity:     3,
		TotalAmount:  1575,
		Currency:     "INR",
	}

	out, err := RenderPDF(ticket)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "ticket-6650b3f1c2a4e0a1b2c3d4e5.pdf", ticket.FileName())
}

func TestRenderPDF_RequiresBookingID(t *testing.T) {
	_, err := RenderPDF(&Ticket{EventTitle: "x"})
	assert.Error(t, err)
}

func TestQRCode_IsPNG(t *testing.T) {
	out, err := QRCode("6650b3f1c2a4e0a1b2c3d4e5")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, qrSize, img.Bounds().Dx())
}
