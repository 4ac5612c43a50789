package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventzo/internal/models"
	"github.com/joshua-takyi/eventzo/internal/services"
)

func CreatePaymentOrder(p *services.PaymentService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := currentUser(c)
		if !ok {
			return
		}

		var req models.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}

		order, err := p.CreateOrder(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(order, "Payment order created"))
	}
}

// SignPayment plays the gateway widget in development: it returns the
// signature the gateway would hand the client for this order and payment.
func SignPayment(p *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			OrderID   string `json:"orderId" binding:"required"`
			PaymentID string `json:"paymentId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "orderId and paymentId are required")
			return
		}

		proof := models.PaymentProof{
			OrderID:   req.OrderID,
			PaymentID: req.PaymentID,
			Signature: p.Sign(req.OrderID, req.PaymentID),
		}
		c.JSON(http.StatusOK, models.SuccessResponse(proof, ""))
	}
}
