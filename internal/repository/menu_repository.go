package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// MenuRepo stores concession items.
type MenuRepo struct {
	c collection[model.MenuItem]
}

func NewMenuRepo(s store.Store) *MenuRepo {
	return &MenuRepo{c: collection[model.MenuItem]{
		store: s, kind: store.MenuItems, what: "menu item",
		idOf:  func(m *model.MenuItem) uint64 { return m.ID },
		setID: func(m *model.MenuItem, id uint64) { m.ID = id },
	}}
}

func (r *MenuRepo) Create(ctx context.Context, m *model.MenuItem) (uint64, error) {
	m.ID = 0
	return r.c.upsert(ctx, m)
}

func (r *MenuRepo) GetByID(ctx context.Context, id uint64) (*model.MenuItem, error) {
	return r.c.get(ctx, id)
}

func (r *MenuRepo) List(ctx context.Context) ([]model.MenuItem, error) { return r.c.all(ctx) }

func (r *MenuRepo) Mutate(ctx context.Context, id uint64, fn func(*model.MenuItem) error) (*model.MenuItem, error) {
	return r.c.mutate(ctx, id, fn)
}

// Take decrements the stock of every item in qty within one locked
// update.  Either all quantities are taken or none: an unknown or
// inactive item is model.ErrNotFound and a short stock is
// model.ErrInvalidState.  It returns the items as they were before the
// decrement.
func (r *MenuRepo) Take(ctx context.Context, qty map[uint64]int) (map[uint64]model.MenuItem, error) {
	taken := make(map[uint64]model.MenuItem, len(qty))
	err := r.c.store.Update(ctx, store.MenuItems, func(raws []json.RawMessage) ([]json.RawMessage, error) {
		items, err := decodeAll[model.MenuItem](store.MenuItems, raws)
		if err != nil {
			return nil, err
		}
		for i := range items {
			it := &items[i]
			n, ok := qty[it.ID]
			if !ok {
				continue
			}
			if !it.IsActive {
				return nil, notFound("menu item", it.ID)
			}
			if it.Stock < n {
				return nil, fmt.Errorf("%w: only %d of %s left", model.ErrInvalidState, it.Stock, it.Name)
			}
			taken[it.ID] = *it
			it.Stock -= n
			b, err := json.Marshal(it)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", store.MenuItems, err)
			}
			raws[i] = b
		}
		for id := range qty {
			if _, ok := taken[id]; !ok {
				return nil, notFound("menu item", id)
			}
		}
		return raws, nil
	})
	if err != nil {
		return nil, err
	}
	return taken, nil
}

// Restock adds qty back to the stock of each item.  Items removed since
// the order was taken are skipped.
func (r *MenuRepo) Restock(ctx context.Context, qty map[uint64]int) error {
	return r.c.store.Update(ctx, store.MenuItems, func(raws []json.RawMessage) ([]json.RawMessage, error) {
		items, err := decodeAll[model.MenuItem](store.MenuItems, raws)
		if err != nil {
			return nil, err
		}
		for i := range items {
			n, ok := qty[items[i].ID]
			if !ok {
				continue
			}
			items[i].Stock += n
			b, err := json.Marshal(&items[i])
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", store.MenuItems, err)
			}
			raws[i] = b
		}
		return raws, nil
	})
}
