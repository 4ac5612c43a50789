package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_created_total",
			Help: "Pending bookings created",
		},
	)

	BookingsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_confirmed_total",
			Help: "Bookings confirmed after payment verification and seat commit",
		},
	)

	// ReconciliationNeeded counts payments that were verified but could not be
	// matched with seats. Anything above zero needs an operator.
	ReconciliationNeeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_reconciliation_needed_total",
			Help: "Verified payments whose seat commit failed",
		},
	)

	PaymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Payment verification attempts by outcome",
		},
		[]string{"status"},
	)

	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_gateway_requests_total",
			Help: "Order creation calls to the payment gateway by outcome",
		},
		[]string{"status"},
	)

	TicketDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_deliveries_total",
			Help: "Ticket delivery attempts by outcome",
		},
		[]string{"status"},
	)

	StalePendingExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_pending_expired_total",
			Help: "Pending bookings cancelled after their TTL",
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
