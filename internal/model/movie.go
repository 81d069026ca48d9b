package model

import "time"

// Movie is a catalog entry.  Format is the variant discriminant (2D or 3D)
// and decides which rooms can screen it.
type Movie struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Genre       string     `json:"genre"`
	DurationMin int        `json:"duration_min"`
	Rating      string     `json:"rating"`
	Format      RoomFormat `json:"format"`
	CreatedAt   time.Time  `json:"created_at"`
}
