package repository

import (
	"context"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// PaymentRepo records payments with the same id rule as TicketRepo.
// Payments are never deleted; cancellation flips Status.
type PaymentRepo struct {
	c collection[model.Payment]
}

func NewPaymentRepo(s store.Store) *PaymentRepo {
	return &PaymentRepo{c: collection[model.Payment]{
		store: s, kind: store.Payments, what: "payment",
		idOf:  func(p *model.Payment) uint64 { return p.ID },
		setID: func(p *model.Payment, id uint64) { p.ID = id },
	}}
}

// Record persists the payment and returns its id.
func (r *PaymentRepo) Record(ctx context.Context, p *model.Payment) (uint64, error) {
	return r.c.upsert(ctx, p)
}

func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	return r.c.get(ctx, id)
}

// ListByTicket returns the payments that reference a ticket.
func (r *PaymentRepo) ListByTicket(ctx context.Context, ticketID uint64) ([]model.Payment, error) {
	return r.c.find(ctx, func(p *model.Payment) bool { return p.TicketID != nil && *p.TicketID == ticketID })
}

func (r *PaymentRepo) List(ctx context.Context) ([]model.Payment, error) { return r.c.all(ctx) }

// Cancel flips a payment to cancelled.  Cancelling twice is a no-op.
func (r *PaymentRepo) Cancel(ctx context.Context, id uint64) error {
	_, err := r.c.mutate(ctx, id, func(p *model.Payment) error {
		p.Status = model.PaymentCancelled
		return nil
	})
	return err
}
