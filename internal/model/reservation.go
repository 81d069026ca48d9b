package model

import "time"

// ReservationStatus is the lifecycle status of a reservation.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
	// ReservationConfirmed is accepted on load for records written by
	// older tooling; the booking flow never writes it.
	ReservationConfirmed ReservationStatus = "confirmed"
)

// Reservation holds seats for a user until ExpiresAt.  It is deactivated
// exactly once, either by cancellation (CancelledAt set) or by conversion
// into a ticket (ConvertedTicketID set).
//
// Fields:
//
//	ID                – primary key identifier.
//	Code              – human readable lookup code, unique.
//	UserID            – user who made the reservation.
//	MovieID           – movie of the showtime.
//	ShowtimeID        – showtime being reserved.
//	RoomID            – room of the showtime.
//	Seats             – reserved seat identifiers.
//	Class             – seat class of every reserved seat.
//	Price             – total price, fixed at creation.
//	Status            – active, cancelled (or legacy confirmed).
//	CreatedAt         – creation timestamp.
//	ExpiresAt         – CreatedAt plus the reservation TTL.
//	CancelledAt       – when the reservation was deactivated.
//	ConvertedTicketID – ticket created from this reservation.
type Reservation struct {
	ID                uint64            `json:"id"`
	Code              string            `json:"code"`
	UserID            uint64            `json:"user_id"`
	MovieID           uint64            `json:"movie_id"`
	ShowtimeID        uint64            `json:"showtime_id"`
	RoomID            uint64            `json:"room_id"`
	Seats             []string          `json:"seats"`
	Class             SeatClass         `json:"seat_type"`
	Price             int               `json:"price"`
	Status            ReservationStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	ExpiresAt         time.Time         `json:"expires_at"`
	CancelledAt       *time.Time        `json:"cancelled_at,omitempty"`
	ConvertedTicketID *uint64           `json:"converted_ticket_id,omitempty"`
}

// ExpiredAt reports whether the reservation is past its expiration.
func (r Reservation) ExpiredAt(now time.Time) bool { return now.After(r.ExpiresAt) }
