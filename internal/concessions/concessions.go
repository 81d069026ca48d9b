// Package concessions sells food menu items.  An order takes stock for
// all of its lines at once, records one payment for the order total, and
// gives the stock back when it is cancelled.
package concessions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/metrics"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/queue"
	"github.com/iliyamo/cinema-ops-manager/internal/repository"
)

// Publisher delivers order events.  Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

type Service struct {
	items    *repository.MenuRepo
	orders   *repository.OrderRepo
	payments *repository.PaymentRepo
	events   Publisher
	log      logrus.FieldLogger
	now      func() time.Time
}

func New(items *repository.MenuRepo, orders *repository.OrderRepo, payments *repository.PaymentRepo, events Publisher, log logrus.FieldLogger) *Service {
	return &Service{items: items, orders: orders, payments: payments, events: events, log: log, now: time.Now}
}

// WithClock sets the time source for order stamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ItemInput describes a menu item to add.
type ItemInput struct {
	Name  string
	Kind  model.MenuKind
	Price int
	Stock int
}

func (s *Service) AddItem(ctx context.Context, in ItemInput) (*model.MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", model.ErrInvalidInput)
	}
	kind, err := model.ParseMenuKind(string(in.Kind))
	if err != nil {
		return nil, err
	}
	if in.Price <= 0 || in.Stock < 0 {
		return nil, fmt.Errorf("%w: price must be positive and stock not negative", model.ErrInvalidInput)
	}
	it := &model.MenuItem{
		Name:      name,
		Kind:      kind,
		Price:     in.Price,
		Stock:     in.Stock,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.items.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// UpdateItem changes the stock and active flag of an item.  Nil fields
// are left as they are.
func (s *Service) UpdateItem(ctx context.Context, id uint64, stock *int, active *bool) (*model.MenuItem, error) {
	if stock != nil && *stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", model.ErrInvalidInput)
	}
	return s.items.Mutate(ctx, id, func(it *model.MenuItem) error {
		if stock != nil {
			it.Stock = *stock
		}
		if active != nil {
			it.IsActive = *active
		}
		return nil
	})
}

// Menu lists the active items, optionally of one kind, ordered by kind
// and name.
func (s *Service) Menu(ctx context.Context, kind model.MenuKind) ([]model.MenuItem, error) {
	if kind != "" {
		if _, err := model.ParseMenuKind(string(kind)); err != nil {
			return nil, err
		}
	}
	all, err := s.items.List(ctx)
	if err != nil {
		return nil, err
	}
	out := lo.Filter(all, func(it model.MenuItem, _ int) bool {
		return it.IsActive && (kind == "" || it.Kind == kind)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// LineInput is one requested item.
type LineInput struct {
	ItemID   uint64
	Quantity int
}

// PlaceOrder sells the requested items to userID.  Repeated items are
// merged.  Stock is taken for all lines or none; if the order or its
// payment cannot be written the stock is returned.
func (s *Service) PlaceOrder(ctx context.Context, userID uint64, lines []LineInput, method model.PaymentMethod) (o *model.FoodOrder, err error) {
	defer func() { metrics.Orders.WithLabelValues(outcome(err)).Inc() }()

	if userID == 0 || len(lines) == 0 {
		return nil, fmt.Errorf("%w: an order needs a user and at least one item", model.ErrInvalidInput)
	}
	if method == "" {
		method = model.MethodCard
	}
	if _, err := model.ParsePaymentMethod(string(method)); err != nil {
		return nil, err
	}
	qty := map[uint64]int{}
	order := []uint64{}
	for _, l := range lines {
		if l.ItemID == 0 || l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item and a positive quantity are required", model.ErrInvalidInput)
		}
		if _, seen := qty[l.ItemID]; !seen {
			order = append(order, l.ItemID)
		}
		qty[l.ItemID] += l.Quantity
	}

	taken, err := s.items.Take(ctx, qty)
	if err != nil {
		return nil, err
	}
	restock := func() {
		if err := s.items.Restock(ctx, qty); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Error("concessions: stock not returned")
		}
	}

	now := s.now().UTC()
	o = &model.FoodOrder{UserID: userID, Method: method, Status: model.OrderActive, CreatedAt: now}
	for _, id := range order {
		it := taken[id]
		o.Lines = append(o.Lines, model.OrderLine{ItemID: id, Name: it.Name, Quantity: qty[id], UnitPrice: it.Price})
		o.Total += it.Price * qty[id]
	}
	if _, err := s.orders.Create(ctx, o); err != nil {
		restock()
		return nil, err
	}

	orderID := o.ID
	pay := &model.Payment{
		UserID:    userID,
		OrderID:   &orderID,
		Amount:    o.Total,
		Method:    method,
		Status:    model.PaymentActive,
		CreatedAt: now,
	}
	if _, err := s.payments.Record(ctx, pay); err != nil {
		restock()
		s.cancelRecord(ctx, o.ID, now)
		metrics.PartialCommits.Inc()
		s.log.WithError(err).WithField("order_id", o.ID).Error("concessions: payment not recorded, order cancelled")
		return nil, fmt.Errorf("%w: order: %v", model.ErrPartialCommit, err)
	}
	o, err = s.orders.Mutate(ctx, o.ID, func(v *model.FoodOrder) error {
		v.PaymentID = pay.ID
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"order_id": orderID, "payment_id": pay.ID}).Warn("concessions: payment not linked to order")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"order_id": o.ID, "user_id": userID, "total": o.Total}).Info("concessions: order placed")
	s.publish(ctx, queue.BookingEvent{Type: queue.OrderPlaced, OrderID: o.ID, UserID: userID, Amount: o.Total})
	return o, nil
}

func (s *Service) cancelRecord(ctx context.Context, id uint64, at time.Time) {
	_, err := s.orders.Mutate(ctx, id, func(v *model.FoodOrder) error {
		v.Status = model.OrderCancelled
		v.CancelledAt = &at
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithField("order_id", id).Error("concessions: compensation failed")
	}
}

// CancelOrder cancels an active order of userID, cancels its payment and
// returns the stock.
func (s *Service) CancelOrder(ctx context.Context, userID, id uint64) (*model.FoodOrder, error) {
	now := s.now().UTC()
	o, err := s.orders.Mutate(ctx, id, func(v *model.FoodOrder) error {
		if v.UserID != userID {
			return fmt.Errorf("order %d: %w", id, model.ErrNotFound)
		}
		if v.Status == model.OrderCancelled {
			return fmt.Errorf("%w: order %d", model.ErrAlreadyCancelled, id)
		}
		v.Status = model.OrderCancelled
		v.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if o.PaymentID != 0 {
		if err := s.payments.Cancel(ctx, o.PaymentID); err != nil {
			s.log.WithError(err).WithField("payment_id", o.PaymentID).Error("concessions: payment not cancelled")
		}
	}
	qty := make(map[uint64]int, len(o.Lines))
	for _, l := range o.Lines {
		qty[l.ItemID] += l.Quantity
	}
	if err := s.items.Restock(ctx, qty); err != nil {
		s.log.WithError(err).WithField("order_id", id).Error("concessions: stock not returned")
	}
	s.publish(ctx, queue.BookingEvent{Type: queue.OrderCancelled, OrderID: o.ID, UserID: userID, Amount: o.Total})
	return o, nil
}

// Order returns an order of userID.
func (s *Service) Order(ctx context.Context, userID, id uint64) (*model.FoodOrder, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("order %d: %w", id, model.ErrNotFound)
	}
	return o, nil
}

// UserOrders lists the orders of userID, newest first.
func (s *Service) UserOrders(ctx context.Context, userID uint64) ([]model.FoodOrder, error) {
	out, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Service) publish(ctx context.Context, ev queue.BookingEvent) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithField("type", ev.Type).Warn("concessions: event not published")
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInvalidState):
		return "out_of_stock"
	case errors.Is(err, model.ErrPartialCommit):
		return "partial_commit"
	}
	return "error"
}
