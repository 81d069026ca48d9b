package repository

import (
	"context"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// RoomRepo provides access to the rooms collection.  Seat counters must
// only be changed through the seat inventory, which uses Mutate.
type RoomRepo struct {
	c collection[model.Room]
}

// NewRoomRepo returns a RoomRepo bound to the given store.
func NewRoomRepo(s store.Store) *RoomRepo {
	return &RoomRepo{c: collection[model.Room]{
		store: s, kind: store.Rooms, what: "room",
		idOf:  func(r *model.Room) uint64 { return r.ID },
		setID: func(r *model.Room, id uint64) { r.ID = id },
	}}
}

// Create inserts a room and assigns its id.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) (uint64, error) {
	room.ID = 0
	return r.c.upsert(ctx, room)
}

// GetByID returns the room or an error wrapping model.ErrNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	return r.c.get(ctx, id)
}

// List returns every room in stored order.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) { return r.c.all(ctx) }

// Mutate applies fn to the stored room within one locked write.
func (r *RoomRepo) Mutate(ctx context.Context, id uint64, fn func(*model.Room) error) (*model.Room, error) {
	return r.c.mutate(ctx, id, fn)
}
