package booking

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/queue"
)

// Purchase buys the requested seats outright.  It issues one ticket per
// seat, each with its own payment, and marks the seats occupied.
func (s *Service) Purchase(ctx context.Context, r Request) (tickets []model.Ticket, err error) {
	defer func() { observe("purchase", err) }()

	if r.Method == "" {
		r.Method = model.MethodCard
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	if _, err := model.ParsePaymentMethod(string(r.Method)); err != nil {
		return nil, err
	}
	t, err := s.resolve(ctx, r)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lockShowtime(ctx, r.RoomID, r.ShowtimeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	held, err := s.holdAll(ctx, r)
	if err != nil {
		return nil, err
	}
	amount, err := s.price(t, r.Class)
	if err != nil {
		s.releaseAll(ctx, r.RoomID, r.ShowtimeID, r.Class, held, "rollback")
		return nil, err
	}

	u := &undo{log: s.Log}
	u.push(func(ctx context.Context) error {
		s.releaseAll(ctx, r.RoomID, r.ShowtimeID, r.Class, held, "rollback")
		return nil
	})
	written := false
	fail := func(err error) error {
		u.run(ctx)
		if !written {
			return err
		}
		return s.partial("purchase", err, logrus.Fields{
			"user_id":     r.UserID,
			"showtime_id": r.ShowtimeID,
			"seats":       held,
		})
	}

	now := s.now().UTC()
	for _, seat := range held {
		tk := model.Ticket{
			UserID:      r.UserID,
			MovieID:     r.MovieID,
			ShowtimeID:  r.ShowtimeID,
			RoomID:      r.RoomID,
			Format:      t.room.Format,
			Seats:       []string{seat},
			Class:       r.Class,
			Price:       amount,
			Status:      model.TicketActive,
			PurchasedAt: now,
		}
		id, err := s.Tickets.Record(ctx, &tk)
		if err != nil {
			return nil, fail(fmt.Errorf("record ticket for seat %s: %w", seat, err))
		}
		written = true
		u.push(func(ctx context.Context) error { return s.voidTicket(ctx, id) })

		pay := model.Payment{
			UserID:    r.UserID,
			TicketID:  &id,
			Amount:    amount,
			Method:    r.Method,
			Status:    model.PaymentActive,
			CreatedAt: now,
		}
		pid, err := s.Payments.Record(ctx, &pay)
		if err != nil {
			return nil, fail(fmt.Errorf("record payment for ticket %d: %w", id, err))
		}
		u.push(func(ctx context.Context) error { return s.Payments.Cancel(ctx, pid) })
		tickets = append(tickets, tk)
	}

	for _, tk := range tickets {
		if err := s.Inventory.Confirm(ctx, r.RoomID, r.ShowtimeID, r.Class, tk.Seats[0], model.TicketLink(tk.ID)); err != nil {
			return nil, fail(fmt.Errorf("confirm seat %s: %w", tk.Seats[0], err))
		}
	}

	s.Log.WithFields(logrus.Fields{
		"user_id":     r.UserID,
		"showtime_id": r.ShowtimeID,
		"seats":       held,
		"price":       amount,
	}).Info("booking: tickets purchased")
	s.publish(ctx, queue.BookingEvent{
		Type:       queue.TicketPurchased,
		TicketIDs:  lo.Map(tickets, func(tk model.Ticket, _ int) uint64 { return tk.ID }),
		UserID:     r.UserID,
		MovieID:    r.MovieID,
		ShowtimeID: r.ShowtimeID,
		RoomID:     r.RoomID,
		Seats:      held,
		Amount:     amount * len(tickets),
	})
	return tickets, nil
}

// voidTicket flips a ticket written by a failed flow to cancelled.
func (s *Service) voidTicket(ctx context.Context, id uint64) error {
	_, err := s.Tickets.Mutate(ctx, id, func(t *model.Ticket) error {
		t.Status = model.TicketCancelled
		return nil
	})
	return err
}
