// Package store is the record persistence layer.  Every entity kind is an
// ordered sequence of JSON records carrying a stable integer "id" field.
// Kinds are saved independently; the store never spans a write across
// kinds.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Kind names an entity collection.
type Kind string

const (
	Rooms        Kind = "rooms"
	Showtimes    Kind = "showtimes"
	Movies       Kind = "movies"
	Users        Kind = "users"
	Tickets      Kind = "tickets"
	Reservations Kind = "reservations"
	Payments     Kind = "payments"
	Tokens       Kind = "refresh_tokens"
	MenuItems    Kind = "menu_items"
	FoodOrders   Kind = "food_orders"
)

// Kinds lists every known kind.
var Kinds = []Kind{Rooms, Showtimes, Movies, Users, Tickets, Reservations, Payments, Tokens, MenuItems, FoodOrders}

// UpdateFunc receives the current records of a kind and returns the
// records to persist.  Returning an error aborts the write.
type UpdateFunc func(records []json.RawMessage) ([]json.RawMessage, error)

// Store is implemented by the JSON file backend and the MySQL backend.
type Store interface {
	// Load returns the records of a kind in stored order.  A kind that was
	// never saved yields an empty slice.
	Load(ctx context.Context, kind Kind) ([]json.RawMessage, error)
	// Save replaces all records of a kind.
	Save(ctx context.Context, kind Kind, records []json.RawMessage) error
	// NextID returns max(id)+1, or 1 when the kind is empty.
	NextID(ctx context.Context, kind Kind) (uint64, error)
	// Update runs a load-modify-save cycle while holding the kind's write
	// lock.
	Update(ctx context.Context, kind Kind, fn UpdateFunc) error
}

// RecordID extracts the "id" field of a raw record.
func RecordID(raw json.RawMessage) (uint64, error) {
	var head struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return 0, fmt.Errorf("decode record id: %w", err)
	}
	return head.ID, nil
}

// MaxID returns the largest id among records.
func MaxID(records []json.RawMessage) (uint64, error) {
	var max uint64
	for _, r := range records {
		id, err := RecordID(r)
		if err != nil {
			return 0, err
		}
		if id > max {
			max = id
		}
	}
	return max, nil
}
