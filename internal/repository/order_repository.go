package repository

import (
	"context"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// OrderRepo stores food orders.  Orders are never deleted.
type OrderRepo struct {
	c collection[model.FoodOrder]
}

func NewOrderRepo(s store.Store) *OrderRepo {
	return &OrderRepo{c: collection[model.FoodOrder]{
		store: s, kind: store.FoodOrders, what: "order",
		idOf:  func(o *model.FoodOrder) uint64 { return o.ID },
		setID: func(o *model.FoodOrder, id uint64) { o.ID = id },
	}}
}

func (r *OrderRepo) Create(ctx context.Context, o *model.FoodOrder) (uint64, error) {
	o.ID = 0
	return r.c.upsert(ctx, o)
}

func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.FoodOrder, error) {
	return r.c.get(ctx, id)
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.FoodOrder, error) {
	return r.c.find(ctx, func(o *model.FoodOrder) bool { return o.UserID == userID })
}

func (r *OrderRepo) List(ctx context.Context) ([]model.FoodOrder, error) { return r.c.all(ctx) }

func (r *OrderRepo) Mutate(ctx context.Context, id uint64, fn func(*model.FoodOrder) error) (*model.FoodOrder, error) {
	return r.c.mutate(ctx, id, fn)
}
