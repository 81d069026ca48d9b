package booking

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/inventory"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

// ReconcileReport summarizes a reconciliation pass.
type ReconcileReport struct {
	// UnpaidTickets are active tickets without an active payment.  They
	// are flagged only; a person decides whether to refund or bill.
	UnpaidTickets []uint64
	// OrphanSeats counts seats released because their ticket or
	// reservation is missing or no longer holds them.
	OrphanSeats int
	// StaleHolds counts holds released for exceeding the hold timeout.
	StaleHolds int
	// Corrections lists counters rewritten to match the seat maps.
	Corrections []inventory.Correction
}

// Reconcile repairs what an interrupted booking can leave behind.  It is
// run once at startup before requests are served.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	rep := &ReconcileReport{}

	tickets, err := s.Tickets.List(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.Payments.List(ctx)
	if err != nil {
		return nil, err
	}
	paid := map[uint64]bool{}
	for _, p := range payments {
		if p.Status == model.PaymentActive && p.TicketID != nil {
			paid[*p.TicketID] = true
		}
	}
	for _, t := range tickets {
		if t.Status == model.TicketActive && !paid[t.ID] {
			rep.UnpaidTickets = append(rep.UnpaidTickets, t.ID)
			s.Log.WithFields(logrus.Fields{"ticket_id": t.ID, "user_id": t.UserID}).Warn("reconcile: active ticket without payment")
		}
	}

	orphans, err := s.orphanSeats(ctx, tickets)
	if err != nil {
		return rep, err
	}
	for _, o := range orphans {
		unlock, err := s.lockShowtime(ctx, o.RoomID, o.ShowtimeID)
		if err != nil {
			return rep, err
		}
		rep.OrphanSeats += s.releaseAll(ctx, o.RoomID, o.ShowtimeID, o.Class, []string{o.SeatID}, "orphan")
		unlock()
	}

	if rep.StaleHolds, err = s.ReleaseStaleHolds(ctx); err != nil {
		return rep, err
	}
	if rep.Corrections, err = s.Inventory.Recount(ctx); err != nil {
		return rep, err
	}

	s.Log.WithFields(logrus.Fields{
		"unpaid_tickets": len(rep.UnpaidTickets),
		"orphan_seats":   rep.OrphanSeats,
		"stale_holds":    rep.StaleHolds,
		"corrections":    len(rep.Corrections),
	}).Info("reconcile: done")
	return rep, nil
}

// orphanSeats finds confirmed seats whose owner does not hold them any
// more: a cancelled or missing ticket, or a reservation that is not
// active.  Used tickets keep their seats.
func (s *Service) orphanSeats(ctx context.Context, tickets []model.Ticket) ([]inventory.HeldSeat, error) {
	reservations, err := s.Reservations.List(ctx)
	if err != nil {
		return nil, err
	}
	showtimes, err := s.Showtimes.List(ctx)
	if err != nil {
		return nil, err
	}
	ticketByID := lo.KeyBy(tickets, func(t model.Ticket) uint64 { return t.ID })
	resByID := lo.KeyBy(reservations, func(r model.Reservation) uint64 { return r.ID })

	var out []inventory.HeldSeat
	for _, st := range showtimes {
		for _, seat := range st.Seats {
			orphan := false
			switch {
			case seat.TicketID != nil:
				t, ok := ticketByID[*seat.TicketID]
				orphan = !ok || t.Status == model.TicketCancelled
			case seat.ReservationID != nil:
				r, ok := resByID[*seat.ReservationID]
				orphan = !ok || r.Status != model.ReservationActive
			case seat.Status != model.SeatAvailable:
				orphan = true
			}
			if orphan {
				out = append(out, inventory.HeldSeat{RoomID: st.RoomID, ShowtimeID: st.ID, SeatID: seat.ID, Class: seat.Class})
			}
		}
	}
	return out, nil
}

// SeatSettled reports whether the booking that owns a taken seat is over:
// its ticket was used or cancelled, or its reservation is no longer
// active.  A seat whose owner is missing counts as settled.  Active
// tickets and active reservations keep their seats.
func (s *Service) SeatSettled(ctx context.Context, seat model.Seat) (bool, error) {
	switch {
	case seat.TicketID != nil:
		t, err := s.Tickets.GetByID(ctx, *seat.TicketID)
		if errors.Is(err, model.ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return t.Status != model.TicketActive, nil
	case seat.ReservationID != nil:
		r, err := s.Reservations.GetByID(ctx, *seat.ReservationID)
		if errors.Is(err, model.ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return r.Status != model.ReservationActive, nil
	}
	return true, nil
}
