package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventzo/internal/helpers"
	"github.com/joshua-takyi/eventzo/internal/models"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty means the error text is safe to show
}

var errorTable = []errorMapping{
	{models.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	{models.ErrNotFound, http.StatusNotFound, "NOT_FOUND", ""},
	{models.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "you do not have access to this booking"},
	{models.ErrInsufficientInventory, http.StatusConflict, "INSUFFICIENT_INVENTORY", ""},
	{models.ErrAlreadyConfirmed, http.StatusConflict, "ALREADY_CONFIRMED", "booking is already confirmed with a different payment"},
	{models.ErrInvalidState, http.StatusConflict, "INVALID_STATE", ""},
	{models.ErrSignatureMismatch, http.StatusPaymentRequired, "PAYMENT_INVALID", "payment could not be verified"},
	{models.ErrAmountMismatch, http.StatusBadRequest, "AMOUNT_MISMATCH", "payment amount does not match the booking"},
	{models.ErrGatewayUnavailable, http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE", "payment gateway is unavailable, try again shortly"},
}

// respondError is the single place service errors become HTTP responses.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var rerr *models.ReconciliationError
	if errors.As(err, &rerr) {
		res := models.ErrorResponse("RECONCILIATION_NEEDED",
			"payment was received but the booking could not be completed; our team has been alerted")
		res.Data = gin.H{"booking_id": rerr.BookingID}
		c.JSON(http.StatusInternalServerError, res)
		return
	}

	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			c.JSON(m.status, models.ErrorResponse(m.code, msg))
			return
		}
	}

	requestID, _ := c.Get("request_id")
	logger.Error("unhandled service error",
		"request_id", requestID,
		"path", c.Request.URL.Path,
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse("INTERNAL", "internal server error"))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse("VALIDATION_ERROR", msg))
}

// currentUser pulls the caller out of the claims AuthMiddleware stored.
func currentUser(c *gin.Context) (*helpers.Claims, uuid.UUID, bool) {
	claims, ok := helpers.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("UNAUTHORIZED", "unauthorized"))
		return nil, uuid.Nil, false
	}
	userID, err := claims.UserUUID()
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("UNAUTHORIZED", "invalid user ID in token"))
		return nil, uuid.Nil, false
	}
	return claims, userID, true
}

// paramID trims spaces and stray quotes some clients leave around path params.
func paramID(c *gin.Context) string {
	id := strings.TrimSpace(c.Param("id"))
	return strings.Trim(id, "\"'")
}
