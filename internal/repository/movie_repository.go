package repository

import (
	"context"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// MovieRepo provides access to the movie catalog.
type MovieRepo struct {
	c collection[model.Movie]
}

func NewMovieRepo(s store.Store) *MovieRepo {
	return &MovieRepo{c: collection[model.Movie]{
		store: s, kind: store.Movies, what: "movie",
		idOf:  func(m *model.Movie) uint64 { return m.ID },
		setID: func(m *model.Movie, id uint64) { m.ID = id },
	}}
}

func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) (uint64, error) {
	m.ID = 0
	return r.c.upsert(ctx, m)
}

func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	return r.c.get(ctx, id)
}

func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) { return r.c.all(ctx) }
