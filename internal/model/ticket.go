package model

import "time"

// TicketStatus is the lifecycle status of a ticket.
type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
)

// Ticket is created only after its seats were held.  Price is fixed at
// creation.  active -> cancelled releases the seats; active -> used is
// terminal.
type Ticket struct {
	ID            uint64       `json:"id"`
	UserID        uint64       `json:"user_id"`
	MovieID       uint64       `json:"movie_id"`
	ShowtimeID    uint64       `json:"showtime_id"`
	RoomID        uint64       `json:"room_id"`
	Format        RoomFormat   `json:"format"`
	Seats         []string     `json:"seats"`
	Class         SeatClass    `json:"seat_type"`
	Price         int          `json:"price"`
	ReservationID *uint64      `json:"reservation_id,omitempty"` // set when converted
	Status        TicketStatus `json:"status"`
	PurchasedAt   time.Time    `json:"purchased_at"`
}
