package booking

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/queue"
)

// Reserve holds the requested seats under a reservation that expires
// after the reservation TTL.  The price is fixed now: the per-seat fare
// times the number of seats.
func (s *Service) Reserve(ctx context.Context, r Request) (res *model.Reservation, err error) {
	defer func() { observe("reserve", err) }()

	if err := r.validate(); err != nil {
		return nil, err
	}
	t, err := s.resolve(ctx, r)
	if err != nil {
		return nil, err
	}
	if s.enforceWindows {
		if err := ReserveWindow(s.now(), t.startsAt); err != nil {
			return nil, err
		}
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

	now := s.now().UTC()
	res = &model.Reservation{
		UserID:     r.UserID,
		MovieID:    r.MovieID,
		ShowtimeID: r.ShowtimeID,
		RoomID:     r.RoomID,
		Seats:      held,
		Class:      r.Class,
		Price:      amount * len(held),
		Status:     model.ReservationActive,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.reservationTTL),
	}
	if _, err := s.Reservations.Create(ctx, res, s.newCode); err != nil {
		s.releaseAll(ctx, r.RoomID, r.ShowtimeID, r.Class, held, "rollback")
		return nil, fmt.Errorf("record reservation: %w", err)
	}

	for _, seat := range held {
		if err := s.Inventory.Confirm(ctx, r.RoomID, r.ShowtimeID, r.Class, seat, model.ReservationLink(res.ID)); err != nil {
			s.releaseAll(ctx, r.RoomID, r.ShowtimeID, r.Class, held, "rollback")
			if _, uerr := s.Reservations.Mutate(ctx, res.ID, func(v *model.Reservation) error {
				v.Status = model.ReservationCancelled
				v.CancelledAt = &now
				return nil
			}); uerr != nil {
				s.Log.WithError(uerr).WithField("reservation_id", res.ID).Error("booking: could not void reservation")
			}
			return nil, s.partial("reserve", fmt.Errorf("confirm seat %s: %w", seat, err), logrus.Fields{
				"reservation_id": res.ID,
				"showtime_id":    r.ShowtimeID,
			})
		}
	}

	s.Log.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"code":           res.Code,
		"user_id":        r.UserID,
		"showtime_id":    r.ShowtimeID,
		"seats":          held,
		"price":          res.Price,
	}).Info("booking: reservation created")
	s.publish(ctx, reservationEvent(queue.ReservationCreated, res))
	return res, nil
}

// Reservation returns a reservation of userID by id.  Reservations of
// other users are reported as not found.
func (s *Service) Reservation(ctx context.Context, userID, id uint64) (*model.Reservation, error) {
	res, err := s.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, fmt.Errorf("reservation %d: %w", id, model.ErrNotFound)
	}
	return res, nil
}

// UserReservations lists the reservations of userID, newest first.
func (s *Service) UserReservations(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	list, err := s.Reservations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(a, b int) bool { return list[a].ID > list[b].ID })
	return list, nil
}

// UserTickets lists the tickets of userID, newest first.
func (s *Service) UserTickets(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	list, err := s.Tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(a, b int) bool { return list[a].ID > list[b].ID })
	return list, nil
}

// ReservationByCode looks a reservation of userID up by its code.
func (s *Service) ReservationByCode(ctx context.Context, userID uint64, code string) (*model.Reservation, error) {
	res, err := s.Reservations.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, fmt.Errorf("reservation %q: %w", code, model.ErrNotFound)
	}
	return res, nil
}

// ConvertReservation turns an active, unexpired reservation into a
// ticket.  The ticket carries the reservation's seats and its stored
// price unchanged; one payment is recorded for it.  The reservation ends
// cancelled with ConvertedTicketID set.  On failure the reservation is
// left active and its seats stay reserved.
func (s *Service) ConvertReservation(ctx context.Context, userID, id uint64, method model.PaymentMethod) (tk *model.Ticket, err error) {
	defer func() { observe("convert", err) }()

	if method == "" {
		method = model.MethodCard
	}
	if _, err := model.ParsePaymentMethod(string(method)); err != nil {
		return nil, err
	}
	res, err := s.Reservation(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lockShowtime(ctx, res.RoomID, res.ShowtimeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the lock; a concurrent cancel or sweep may have won.
	res, err = s.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if res.Status != model.ReservationActive {
		return nil, fmt.Errorf("%w: reservation %d is %s", model.ErrInvalidState, id, res.Status)
	}
	if res.ExpiredAt(now) {
		return nil, fmt.Errorf("%w: reservation %d expired at %s", model.ErrExpired, id, res.ExpiresAt.Format("2006-01-02 15:04"))
	}
	room, err := s.Rooms.GetByID(ctx, res.RoomID)
	if err != nil {
		return nil, err
	}

	u := &undo{log: s.Log}
	fail := func(err error) error {
		u.run(ctx)
		return s.partial("convert", err, logrus.Fields{"reservation_id": id})
	}

	resID := res.ID
	tk = &model.Ticket{
		UserID:        res.UserID,
		MovieID:       res.MovieID,
		ShowtimeID:    res.ShowtimeID,
		RoomID:        res.RoomID,
		Format:        room.Format,
		Seats:         append([]string(nil), res.Seats...),
		Class:         res.Class,
		Price:         res.Price,
		ReservationID: &resID,
		Status:        model.TicketActive,
		PurchasedAt:   now,
	}
	ticketID, err := s.Tickets.Record(ctx, tk)
	if err != nil {
		return nil, fmt.Errorf("record ticket: %w", err)
	}
	u.push(func(ctx context.Context) error { return s.voidTicket(ctx, ticketID) })

	pay := model.Payment{
		UserID:    res.UserID,
		TicketID:  &ticketID,
		Amount:    res.Price,
		Method:    method,
		Status:    model.PaymentActive,
		CreatedAt: now,
	}
	payID, err := s.Payments.Record(ctx, &pay)
	if err != nil {
		return nil, fail(fmt.Errorf("record payment: %w", err))
	}
	u.push(func(ctx context.Context) error { return s.Payments.Cancel(ctx, payID) })

	from, to := model.ReservationLink(res.ID), model.TicketLink(ticketID)
	for _, seat := range res.Seats {
		seat := seat
		if err := s.Inventory.Relink(ctx, res.ShowtimeID, seat, from, to); err != nil {
			return nil, fail(fmt.Errorf("relink seat %s: %w", seat, err))
		}
		u.push(func(ctx context.Context) error { return s.Inventory.Relink(ctx, res.ShowtimeID, seat, to, from) })
	}

	_, err = s.Reservations.Mutate(ctx, res.ID, func(v *model.Reservation) error {
		if v.Status != model.ReservationActive {
			return fmt.Errorf("%w: reservation %d is %s", model.ErrInvalidState, v.ID, v.Status)
		}
		v.Status = model.ReservationCancelled
		v.CancelledAt = &now
		v.ConvertedTicketID = &ticketID
		return nil
	})
	if err != nil {
		return nil, fail(fmt.Errorf("close reservation: %w", err))
	}

	s.Log.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"ticket_id":      ticketID,
		"price":          res.Price,
	}).Info("booking: reservation converted")
	ev := reservationEvent(queue.ReservationConverted, res)
	ev.TicketIDs = []uint64{ticketID}
	s.publish(ctx, ev)
	return tk, nil
}

func reservationEvent(typ queue.EventType, res *model.Reservation) queue.BookingEvent {
	return queue.BookingEvent{
		Type:          typ,
		ReservationID: res.ID,
		Code:          res.Code,
		UserID:        res.UserID,
		MovieID:       res.MovieID,
		ShowtimeID:    res.ShowtimeID,
		RoomID:        res.RoomID,
		Seats:         res.Seats,
		Amount:        res.Price,
	}
}
