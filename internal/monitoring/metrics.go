// Package monitoring exposes Prometheus counters for the confirmation
// pipeline. Counters are registered via promauto at init time and
// incremented from the service layer.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	confirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_confirmations_total",
			Help: "Payment confirmation attempts by outcome",
		},
		[]string{"outcome"},
	)

	seatConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_claim_conflicts_total",
			Help: "Confirmations lost to a concurrent seat claim",
		},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued by successful confirmations",
		},
	)

	expiredHolds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expired_reservation_holds_total",
			Help: "PENDING reservations transitioned to EXPIRED by the sweeper",
		},
	)

	ticketVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_verifications_total",
			Help: "Ticket QR verifications by outcome",
		},
		[]string{"outcome"},
	)
)

// TrackConfirmation records one confirmation attempt. Outcome is one of
// "success", "conflict", "not_settled" or "error".
func TrackConfirmation(outcome string) {
	confirmations.WithLabelValues(outcome).Inc()
	if outcome == "conflict" {
		seatConflicts.Inc()
	}
}

// TrackTicketsIssued records n freshly issued tickets.
func TrackTicketsIssued(n int) {
	ticketsIssued.Add(float64(n))
}

// TrackExpiredHolds records holds expired by one sweep pass.
func TrackExpiredHolds(n int64) {
	expiredHolds.Add(float64(n))
}

// TrackVerification records one QR verification. Outcome is one of
// "valid", "already_used", "cancelled", "not_paid" or "not_found".
func TrackVerification(outcome string) {
	ticketVerifications.WithLabelValues(outcome).Inc()
}
