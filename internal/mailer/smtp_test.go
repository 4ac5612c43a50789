package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/joshua-takyi/eventzo/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage("tickets@eventzo.app", "ama@example.com", "Your ticket for Jazz Night", "<p>hi</p>",
		services.Attachment{Name: "ticket-b1.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3 fake")},
	)

	assert.Equal(t, []string{"ama@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Your ticket for Jazz Night"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, `filename="ticket-b1.pdf"`)
	assert.Contains(t, raw, "application/pdf")
	assert.Contains(t, raw, "text/html")
}

func TestSend_CancelledContext(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525, From: "tickets@eventzo.app"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "ama@example.com", "s", "b"), context.Canceled)
}
