package model

import (
	"fmt"
	"time"
)

// RoomFormat is the projection format of a room.  It selects the base
// price table and whether preferential seating exists.
type RoomFormat string

const (
	Format2D RoomFormat = "2D"
	Format3D RoomFormat = "3D"
)

// ParseRoomFormat validates a raw format string.
func ParseRoomFormat(s string) (RoomFormat, error) {
	switch RoomFormat(s) {
	case Format2D, Format3D:
		return RoomFormat(s), nil
	}
	return "", fmt.Errorf("%w: unknown room format %q", ErrInvalidInput, s)
}

// SeatClass is the commercial class of a seat.
type SeatClass string

const (
	SeatStandard     SeatClass = "standard"
	SeatPreferential SeatClass = "preferential"
)

// ParseSeatClass validates a raw seat class string.
func ParseSeatClass(s string) (SeatClass, error) {
	switch SeatClass(s) {
	case SeatStandard, SeatPreferential:
		return SeatClass(s), nil
	}
	return "", fmt.Errorf("%w: unknown seat class %q", ErrInvalidInput, s)
}

// SeatSpec is one entry of a room's seating layout.
type SeatSpec struct {
	ID    string    `json:"id"`
	Class SeatClass `json:"seat_type"`
}

// Room represents a cinema hall.  It owns the aggregate seat-class
// counters: Capacity is fixed at creation and Available is mutated only by
// the seat inventory, always within 0 <= Available <= Capacity.
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – display name (e.g. "3D Hall").
//	Format    – 2D or 3D.
//	Capacity  – total seats per class.
//	Available – currently free seats per class.
//	Layout    – seat identifiers with their class.
//	IsActive  – soft-disable flag.
//	CreatedAt – creation timestamp.
type Room struct {
	ID        uint64            `json:"id"`
	Name      string            `json:"name"`
	Format    RoomFormat        `json:"format"`
	Capacity  map[SeatClass]int `json:"capacity"`
	Available map[SeatClass]int `json:"available_seats"`
	Layout    []SeatSpec        `json:"layout"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
}
