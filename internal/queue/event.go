// Package queue defines the booking events exchanged over RabbitMQ, the
// publisher used by the booking core and the consumer that appends them to
// the booking log.
package queue

import "time"

// EventType names a booking lifecycle transition.
type EventType string

const (
	TicketPurchased      EventType = "ticket.purchased"
	TicketCancelled      EventType = "ticket.cancelled"
	TicketUsed           EventType = "ticket.used"
	ReservationCreated   EventType = "reservation.created"
	ReservationCancelled EventType = "reservation.cancelled"
	ReservationConverted EventType = "reservation.converted"
	ReservationExpired   EventType = "reservation.expired"
	OrderPlaced          EventType = "order.placed"
	OrderCancelled       EventType = "order.cancelled"
)

// BookingEvent is published after a booking transition has been
// committed.  It carries enough information for downstream consumers to
// log or notify without reading the record store.
type BookingEvent struct {
	Type          EventType `json:"type"`
	TicketIDs     []uint64  `json:"ticket_ids,omitempty"`
	ReservationID uint64    `json:"reservation_id,omitempty"`
	Code          string    `json:"code,omitempty"`
	OrderID       uint64    `json:"order_id,omitempty"`
	UserID        uint64    `json:"user_id"`
	MovieID       uint64    `json:"movie_id"`
	ShowtimeID    uint64    `json:"showtime_id"`
	RoomID        uint64    `json:"room_id"`
	Seats         []string  `json:"seats"`
	Amount        int       `json:"amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}
