package repository

import (
	"context"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// ShowtimeRepo provides access to the showtimes collection, including the
// per-seat state of each showtime.
type ShowtimeRepo struct {
	c collection[model.Showtime]
}

// NewShowtimeRepo returns a ShowtimeRepo bound to the given store.
func NewShowtimeRepo(s store.Store) *ShowtimeRepo {
	return &ShowtimeRepo{c: collection[model.Showtime]{
		store: s, kind: store.Showtimes, what: "showtime",
		idOf:  func(s *model.Showtime) uint64 { return s.ID },
		setID: func(s *model.Showtime, id uint64) { s.ID = id },
	}}
}

func (r *ShowtimeRepo) Create(ctx context.Context, st *model.Showtime) (uint64, error) {
	st.ID = 0
	return r.c.upsert(ctx, st)
}

func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	return r.c.get(ctx, id)
}

func (r *ShowtimeRepo) List(ctx context.Context) ([]model.Showtime, error) { return r.c.all(ctx) }

// ListByMovie returns the showtimes of a movie.
func (r *ShowtimeRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Showtime, error) {
	return r.c.find(ctx, func(s *model.Showtime) bool { return s.MovieID == movieID })
}

func (r *ShowtimeRepo) Mutate(ctx context.Context, id uint64, fn func(*model.Showtime) error) (*model.Showtime, error) {
	return r.c.mutate(ctx, id, fn)
}

// Delete removes a showtime record.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) error { return r.c.remove(ctx, id) }
