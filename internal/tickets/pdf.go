// Package tickets renders the printable ticket handed to an attendee after a
// booking is confirmed.
package tickets

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

type Ticket struct {
	BookingID     string    `json:"booking_id"`
	EventTitle    string    `json:"event_title"`
	EventDate     time.Time `json:"event_date"`
	EventTime     string    `json:"event_time"`
	Location      string    `json:"location"`
	AttendeeName  string    `json:"attendee_name"`
	AttendeeEmail string    `json:"attendee_email"`
	Quantity      int       `json:"quantity"`
	TotalAmount   int64     `json:"total_amount"`
	Currency      string    `json:"currency"`
	URL           string    `json:"url,omitempty"`
	PDF           []byte    `json:"-"`
}

func (t *Ticket) FileName() string {
	return fmt.Sprintf("ticket-%s.pdf", t.BookingID)
}

// QRCode returns a PNG encoding the booking id, which is what the door scanner reads.
func QRCode(bookingID string) ([]byte, error) {
	png, err := qrcode.Encode(bookingID, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %v", err)
	}
	return png, nil
}

func RenderPDF(t *Ticket) ([]byte, error) {
	if t.BookingID == "" {
		return nil, fmt.Errorf("ticket has no booking id")
	}

	png, err := QRCode(t.BookingID)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Ticket "+t.BookingID, true)
	pdf.SetAuthor("Eventzo", true)
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(t.EventTitle), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Date", t.EventDate.Format("Monday, 02 Jan 2006")},
		{"Time", t.EventTime},
		{"Venue", t.Location},
		{"Attendee", t.AttendeeName},
		{"Tickets", fmt.Sprintf("%d", t.Quantity)},
		{"Paid", fmt.Sprintf("%s %d", t.Currency, t.TotalAmount)},
		{"Booking", t.BookingID},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(28, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, tr(row[1]), "", 1, "L", false, 0, "")
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("qr", 44, pdf.GetY()+8, 60, 60, false, opts, 0, "")

	pdf.SetY(-24)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 5, "Present this QR code at the entrance.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render ticket pdf: %v", err)
	}
	return buf.Bytes(), nil
}
