// Package metrics registers the Prometheus collectors of the booking core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingOutcomes counts purchase/reservation/conversion attempts by
	// flow and outcome (ok, seat_unavailable, invalid_input, ...).
	BookingOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinema_booking_outcomes_total",
		Help: "Booking attempts by flow and outcome.",
	}, []string{"flow", "outcome"})

	// SeatReleases counts seats returned to the pool by reason.
	SeatReleases = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinema_seat_releases_total",
		Help: "Seats released back to the pool by reason.",
	}, []string{"reason"})

	// ClampedReleases counts releases that would have pushed a counter
	// above capacity.
	ClampedReleases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinema_seat_release_clamped_total",
		Help: "Releases clamped at capacity (counter drift).",
	})

	// PartialCommits counts bookings that failed after some records were
	// written.
	PartialCommits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinema_partial_commits_total",
		Help: "Bookings that failed between record writes.",
	})

	// Orders counts food order attempts by outcome.
	Orders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinema_food_orders_total",
		Help: "Food order attempts by outcome.",
	}, []string{"outcome"})
)
