package model

import "time"

// SeatStatus is the persistent status of a seat within a showtime.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatOccupied  SeatStatus = "occupied"
	SeatReserved  SeatStatus = "reserved"
)

// Seat describes the state of one seat for a showtime.  A held seat keeps
// the available status and carries HeldAt until it is confirmed or
// released.  TicketID and ReservationID are mutually exclusive and both are
// nil exactly when Status is available.
type Seat struct {
	ID            string     `json:"id"`
	Class         SeatClass  `json:"seat_type"`
	Status        SeatStatus `json:"status"`
	TicketID      *uint64    `json:"ticket_id,omitempty"`
	ReservationID *uint64    `json:"reservation_id,omitempty"`
	HeldAt        *time.Time `json:"held_at,omitempty"`
}

// Free reports whether the seat can be held.
func (s Seat) Free() bool { return s.Status == SeatAvailable && s.HeldAt == nil }

// Held reports whether the seat is in the temporary hold sub-status.
func (s Seat) Held() bool { return s.Status == SeatAvailable && s.HeldAt != nil }

// SeatLink names the record a confirmed seat belongs to.  Exactly one of
// the two ids must be non-zero.
type SeatLink struct {
	TicketID      uint64
	ReservationID uint64
}

// TicketLink links a seat to a ticket.
func TicketLink(id uint64) SeatLink { return SeatLink{TicketID: id} }

// ReservationLink links a seat to a reservation.
func ReservationLink(id uint64) SeatLink { return SeatLink{ReservationID: id} }

// Valid reports whether exactly one id is set.
func (l SeatLink) Valid() bool { return (l.TicketID == 0) != (l.ReservationID == 0) }

// Matches reports whether the seat currently carries this link.
func (l SeatLink) Matches(s Seat) bool {
	if l.TicketID != 0 {
		return s.Status == SeatOccupied && s.TicketID != nil && *s.TicketID == l.TicketID
	}
	return s.Status == SeatReserved && s.ReservationID != nil && *s.ReservationID == l.ReservationID
}
