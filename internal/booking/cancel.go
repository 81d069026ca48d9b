package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/queue"
)

// CancelTicket cancels an active ticket of userID, soft-cancels its
// payments and returns its seats to the pool.
func (s *Service) CancelTicket(ctx context.Context, userID, id uint64) (tk *model.Ticket, err error) {
	defer func() { observe("cancel_ticket", err) }()

	tk, err = s.Tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tk.UserID != userID {
		return nil, fmt.Errorf("ticket %d: %w", id, model.ErrNotFound)
	}
	if err := ticketCancellable(tk); err != nil {
		return nil, err
	}
	if s.enforceWindows {
		if err := s.checkCancelWindow(ctx, tk.ShowtimeID); err != nil {
			return nil, err
		}
	}

	unlock, err := s.lockShowtime(ctx, tk.RoomID, tk.ShowtimeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tk, err = s.Tickets.Mutate(ctx, id, func(t *model.Ticket) error {
		if err := ticketCancellable(t); err != nil {
			return err
		}
		t.Status = model.TicketCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	pays, err := s.Payments.ListByTicket(ctx, id)
	if err != nil {
		s.Log.WithError(err).WithField("ticket_id", id).Error("booking: payments of cancelled ticket not loaded")
	}
	for _, p := range pays {
		if p.Status != model.PaymentActive {
			continue
		}
		if err := s.Payments.Cancel(ctx, p.ID); err != nil {
			s.Log.WithError(err).WithField("payment_id", p.ID).Error("booking: payment not cancelled")
		}
	}
	s.releaseAll(ctx, tk.RoomID, tk.ShowtimeID, tk.Class, tk.Seats, "ticket_cancelled")

	s.Log.WithFields(logrus.Fields{"ticket_id": id, "user_id": userID}).Info("booking: ticket cancelled")
	s.publish(ctx, queue.BookingEvent{
		Type:       queue.TicketCancelled,
		TicketIDs:  []uint64{tk.ID},
		UserID:     tk.UserID,
		MovieID:    tk.MovieID,
		ShowtimeID: tk.ShowtimeID,
		RoomID:     tk.RoomID,
		Seats:      tk.Seats,
		Amount:     tk.Price,
	})
	return tk, nil
}

func ticketCancellable(t *model.Ticket) error {
	switch t.Status {
	case model.TicketActive:
		return nil
	case model.TicketCancelled:
		return fmt.Errorf("%w: ticket %d", model.ErrAlreadyCancelled, t.ID)
	default:
		return fmt.Errorf("%w: ticket %d is %s", model.ErrInvalidState, t.ID, t.Status)
	}
}

// MarkTicketUsed records admission.  Only active tickets can be used and
// the transition is final; the seats stay occupied.
func (s *Service) MarkTicketUsed(ctx context.Context, id uint64) (*model.Ticket, error) {
	tk, err := s.Tickets.Mutate(ctx, id, func(t *model.Ticket) error {
		if t.Status != model.TicketActive {
			return fmt.Errorf("%w: ticket %d is %s", model.ErrInvalidState, t.ID, t.Status)
		}
		t.Status = model.TicketUsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.BookingEvent{
		Type:       queue.TicketUsed,
		TicketIDs:  []uint64{tk.ID},
		UserID:     tk.UserID,
		MovieID:    tk.MovieID,
		ShowtimeID: tk.ShowtimeID,
		RoomID:     tk.RoomID,
		Seats:      tk.Seats,
	})
	return tk, nil
}

// CancelReservation cancels an active reservation of userID and releases
// its seats.  An expired reservation is refused with model.ErrExpired; the
// sweeper reaps it instead.
func (s *Service) CancelReservation(ctx context.Context, userID, id uint64) (res *model.Reservation, err error) {
	defer func() { observe("cancel_reservation", err) }()

	res, err = s.Reservation(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := reservationCancellable(res, now); err != nil {
		return nil, err
	}
	if s.enforceWindows {
		if err := s.checkCancelWindow(ctx, res.ShowtimeID); err != nil {
			return nil, err
		}
	}

	unlock, err := s.lockShowtime(ctx, res.RoomID, res.ShowtimeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	res, err = s.Reservations.Mutate(ctx, id, func(v *model.Reservation) error {
		if err := reservationCancellable(v, now); err != nil {
			return err
		}
		v.Status = model.ReservationCancelled
		v.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.releaseAll(ctx, res.RoomID, res.ShowtimeID, res.Class, res.Seats, "reservation_cancelled")

	s.Log.WithFields(logrus.Fields{"reservation_id": id, "user_id": userID}).Info("booking: reservation cancelled")
	s.publish(ctx, reservationEvent(queue.ReservationCancelled, res))
	return res, nil
}

func reservationCancellable(r *model.Reservation, now time.Time) error {
	switch {
	case r.Status == model.ReservationCancelled && r.ConvertedTicketID != nil:
		return fmt.Errorf("%w: reservation %d was converted to ticket %d", model.ErrInvalidState, r.ID, *r.ConvertedTicketID)
	case r.Status == model.ReservationCancelled:
		return fmt.Errorf("%w: reservation %d", model.ErrAlreadyCancelled, r.ID)
	case r.Status != model.ReservationActive:
		return fmt.Errorf("%w: reservation %d is %s", model.ErrInvalidState, r.ID, r.Status)
	case r.ExpiredAt(now):
		return fmt.Errorf("%w: reservation %d expired at %s", model.ErrExpired, r.ID, r.ExpiresAt.Format("2006-01-02 15:04"))
	}
	return nil
}
