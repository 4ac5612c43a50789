package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventzo/internal/models"
	"github.com/joshua-takyi/eventzo/internal/services"
)

func ListReconciliations(b *services.BookingService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := b.ListReconciliations(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(bookings, len(bookings)))
	}
}

func Dashboard(b *services.BookingService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := b.Dashboard(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(stats, ""))
	}
}

func CreateEvent(e *services.EventService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}

		event, err := e.CreateEvent(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(event, "Event created successfully"))
	}
}
