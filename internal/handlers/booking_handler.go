package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventzo/internal/models"
	"github.com/joshua-takyi/eventzo/internal/services"
)

func CreateBooking(b *services.BookingService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, userID, ok := currentUser(c)
		if !ok {
			return
		}

		var req models.CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}

		attendee := models.Attendee{UserID: userID, Name: claims.Name, Email: claims.Email}
		booking, err := b.CreateBooking(c.Request.Context(), attendee, req.EventID, req.Quantity)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(booking, "Booking created, complete payment to confirm"))
	}
}

func GetBooking(b *services.BookingService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		booking, err := b.GetBookingForUser(c.Request.Context(), paramID(c), userID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, ""))
	}
}

func ListMyBookings(b *services.BookingService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		bookings, err := b.ListBookingsForUser(c.Request.Context(), userID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(bookings, len(bookings)))
	}
}

func VerifyBooking(b *services.BookingService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		var proof models.PaymentProof
		if err := c.ShouldBindJSON(&proof); err != nil {
			badRequest(c, "orderId, paymentId and signature are required")
			return
		}

		booking, err := b.ConfirmBooking(c.Request.Context(), paramID(c), userID, proof)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "Payment verified, booking confirmed"))
	}
}

func CancelBooking(b *services.BookingService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		booking, err := b.CancelBooking(c.Request.Context(), paramID(c), userID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "Booking cancelled"))
	}
}

func DownloadTicket(t *services.TicketService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		ticket, err := t.RenderForUser(c.Request.Context(), paramID(c), userID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.Header("Content-Disposition", `attachment; filename="`+ticket.FileName()+`"`)
		c.Data(http.StatusOK, "application/pdf", ticket.PDF)
	}
}

func ResendTicket(t *services.TicketService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		if err := t.Resend(c.Request.Context(), paramID(c), userID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusAccepted, models.SuccessResponse(nil, "Ticket delivery queued"))
	}
}
