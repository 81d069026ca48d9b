package booking

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/metrics"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/queue"
)

// ReleaseStaleHolds releases seats held for longer than the hold timeout.
// Holds only outlive their request when a process died between hold and
// confirm.
func (s *Service) ReleaseStaleHolds(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.holdTimeout)
	stale, err := s.Inventory.HeldSeats(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, h := range stale {
		unlock, err := s.lockShowtime(ctx, h.RoomID, h.ShowtimeID)
		if err != nil {
			return n, err
		}
		ok, err := s.Inventory.ReleaseHold(ctx, h.RoomID, h.ShowtimeID, h.Class, h.SeatID, cutoff)
		unlock()
		fields := logrus.Fields{"showtime_id": h.ShowtimeID, "seat": h.SeatID, "held_at": h.HeldAt}
		if err != nil {
			s.Log.WithError(err).WithFields(fields).Error("booking: stale hold not released")
			continue
		}
		if !ok {
			continue
		}
		n++
		metrics.SeatReleases.WithLabelValues("hold_timeout").Inc()
		s.Log.WithFields(fields).Warn("booking: stale hold released")
	}
	return n, nil
}

// ExpireReservations cancels active reservations past their expiry and
// releases their seats.  It returns the reaped reservations.
func (s *Service) ExpireReservations(ctx context.Context) ([]model.Reservation, error) {
	active, err := s.Reservations.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	var reaped []model.Reservation
	for _, r := range active {
		if !r.ExpiredAt(now) {
			continue
		}
		res, err := s.expire(ctx, r, now)
		if err != nil {
			s.Log.WithError(err).WithField("reservation_id", r.ID).Error("booking: reservation not expired")
			continue
		}
		if res != nil {
			reaped = append(reaped, *res)
		}
	}
	return reaped, nil
}

func (s *Service) expire(ctx context.Context, r model.Reservation, now time.Time) (*model.Reservation, error) {
	unlock, err := s.lockShowtime(ctx, r.RoomID, r.ShowtimeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	skipped := false
	res, err := s.Reservations.Mutate(ctx, r.ID, func(v *model.Reservation) error {
		if v.Status != model.ReservationActive || !v.ExpiredAt(now) {
			skipped = true
			return errSkip
		}
		v.Status = model.ReservationCancelled
		v.CancelledAt = &now
		return nil
	})
	if skipped {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.releaseAll(ctx, res.RoomID, res.ShowtimeID, res.Class, res.Seats, "reservation_expired")
	s.publish(ctx, reservationEvent(queue.ReservationExpired, res))
	return res, nil
}

// Sweeper periodically releases stale holds and reaps expired
// reservations.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	log      logrus.FieldLogger
}

// NewSweeper returns a sweeper ticking every interval.
func NewSweeper(svc *Service, interval time.Duration, log logrus.FieldLogger) *Sweeper {
	return &Sweeper{svc: svc, interval: interval, log: log}
}

// Start runs until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.WithField("interval", s.interval).Info("sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if n, err := s.svc.ReleaseStaleHolds(ctx); err != nil {
		s.log.WithError(err).Error("failed to release stale holds")
	} else if n > 0 {
		s.log.WithField("seats", n).Info("stale holds released")
	}

	reaped, err := s.svc.ExpireReservations(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to expire reservations")
		return
	}
	for _, r := range reaped {
		s.log.WithFields(logrus.Fields{
			"reservation_id": r.ID,
			"user_id":        r.UserID,
			"showtime_id":    r.ShowtimeID,
		}).Info("reservation expired")
	}
}
