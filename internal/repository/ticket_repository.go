package repository

import (
	"context"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// TicketRepo records tickets.  Record is an upsert by id: a zero id is
// assigned max+1 over the existing tickets, a non-zero id replaces the
// stored ticket, so repeating a Record call with the same ticket is
// harmless.  Amounts are not validated here; pricing happens upstream.
type TicketRepo struct {
	c collection[model.Ticket]
}

func NewTicketRepo(s store.Store) *TicketRepo {
	return &TicketRepo{c: collection[model.Ticket]{
		store: s, kind: store.Tickets, what: "ticket",
		idOf:  func(t *model.Ticket) uint64 { return t.ID },
		setID: func(t *model.Ticket, id uint64) { t.ID = id },
	}}
}

// Record persists the ticket and returns its id.
func (r *TicketRepo) Record(ctx context.Context, t *model.Ticket) (uint64, error) {
	return r.c.upsert(ctx, t)
}

// NextID returns the id the next recorded ticket would receive.
func (r *TicketRepo) NextID(ctx context.Context) (uint64, error) { return r.c.nextID(ctx) }

func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	return r.c.get(ctx, id)
}

// ListByUser returns the tickets bought by a user.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	return r.c.find(ctx, func(t *model.Ticket) bool { return t.UserID == userID })
}

// ListByShowtime returns the tickets of a showtime.
func (r *TicketRepo) ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Ticket, error) {
	return r.c.find(ctx, func(t *model.Ticket) bool { return t.ShowtimeID == showtimeID })
}

func (r *TicketRepo) List(ctx context.Context) ([]model.Ticket, error) { return r.c.all(ctx) }

// Mutate applies fn to the stored ticket within one locked write.
func (r *TicketRepo) Mutate(ctx context.Context, id uint64, fn func(*model.Ticket) error) (*model.Ticket, error) {
	return r.c.mutate(ctx, id, fn)
}
