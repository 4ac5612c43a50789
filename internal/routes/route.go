package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventzo/internal/container"
	"github.com/joshua-takyi/eventzo/internal/handlers"
	"github.com/joshua-takyi/eventzo/internal/metrics"
	"github.com/joshua-takyi/eventzo/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	logger := container.Logger
	bookings := container.BookingService
	tickets := container.TicketService

	// API version 1
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "eventzo-api",
			})
		})
		v1.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.Auth, logger))

	bookingRoutes := protected.Group("/bookings")
	{
		bookingRoutes.POST("", handlers.CreateBooking(bookings, logger))
		bookingRoutes.GET("/mine", handlers.ListMyBookings(bookings, logger))
		bookingRoutes.GET("/my", handlers.ListMyBookings(bookings, logger))
		bookingRoutes.GET("/:id", handlers.GetBooking(bookings, logger))
		bookingRoutes.POST("/:id/verify", handlers.VerifyBooking(bookings, logger))
		bookingRoutes.POST("/:id/cancel", handlers.CancelBooking(bookings, logger))
		bookingRoutes.GET("/:id/ticket", handlers.DownloadTicket(tickets, logger))
		bookingRoutes.POST("/:id/ticket/resend", handlers.ResendTicket(tickets, logger))
	}

	paymentRoutes := protected.Group("/payments")
	{
		paymentRoutes.POST("/orders", handlers.CreatePaymentOrder(container.PaymentService, logger))
	}

	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(middleware.RequireAdmin())
	{
		adminRoutes.GET("/reconciliations", handlers.ListReconciliations(bookings, logger))
		adminRoutes.GET("/dashboard", handlers.Dashboard(bookings, logger))
		adminRoutes.POST("/events", handlers.CreateEvent(container.EventService, logger))
	}

	if container.Config.DevPaymentSignerEnabled() {
		// stands in for the gateway checkout widget
		logger.Warn("development payment signer mounted")
		protected.POST("/dev/payments/sign", handlers.SignPayment(container.PaymentService))
	}

	return r
}
