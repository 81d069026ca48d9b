package model

import (
	"fmt"
	"time"
)

// Date and time layouts used by the flat records.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Session is the coarse time-of-day label of a showtime.  It is used for
// display only; pricing uses the exact hour.
type Session string

const (
	SessionMorning   Session = "morning"
	SessionAfternoon Session = "afternoon"
	SessionEvening   Session = "evening"
)

// SessionFor derives the session label from a start hour.
func SessionFor(hour int) Session {
	switch {
	case hour < 12:
		return SessionMorning
	case hour < 18:
		return SessionAfternoon
	default:
		return SessionEvening
	}
}

// Showtime represents a scheduled screening of a movie in a room.  Its
// Available counters mirror the room capacity at creation and are
// decremented in lockstep with the room counters by the seat inventory.
// Seats holds the per-seat state for this screening.
type Showtime struct {
	ID        uint64            `json:"id"`
	MovieID   uint64            `json:"movie_id"`
	RoomID    uint64            `json:"room_id"`
	Date      string            `json:"date"`       // YYYY-MM-DD
	StartTime string            `json:"start_time"` // HH:MM
	EndTime   string            `json:"end_time"`   // HH:MM
	Session   Session           `json:"session"`
	Available map[SeatClass]int `json:"available_seats"`
	Seats     []Seat            `json:"seats"`
	CreatedAt time.Time         `json:"created_at"`
}

// StartsAt combines Date and StartTime into a wall-clock timestamp.  The
// value is interpreted in UTC so that weekday and hour read back exactly
// as stored.
func (s Showtime) StartsAt() (time.Time, error) {
	return CombineDateTime(s.Date, s.StartTime)
}

// CombineDateTime parses a YYYY-MM-DD date and an HH:MM time.
func CombineDateTime(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: showtime %q %q: %v", ErrInvalidInput, date, clock, err)
	}
	return t, nil
}

// SeatIndex returns the position of a seat in Seats or -1.
func (s *Showtime) SeatIndex(seatID string) int {
	for i := range s.Seats {
		if s.Seats[i].ID == seatID {
			return i
		}
	}
	return -1
}
