// Package booking implements the seat booking state machine: direct ticket
// purchase, reservations with expiry, reservation to ticket conversion,
// cancellations, and the background sweep of stale holds and expired
// reservations.
//
// Every flow that touches seats runs under the room/showtime lock for its
// whole hold, price, record and confirm span.  A failure at any step
// releases the seats held by the request and undoes the records already
// written; a failure after records were written is reported as
// model.ErrPartialCommit.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/inventory"
	"github.com/iliyamo/cinema-ops-manager/internal/lock"
	"github.com/iliyamo/cinema-ops-manager/internal/metrics"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/pricing"
	"github.com/iliyamo/cinema-ops-manager/internal/queue"
	"github.com/iliyamo/cinema-ops-manager/internal/repository"
)

// Publisher delivers booking events.  Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }

// Deps groups the collaborators of the Service.
type Deps struct {
	Rooms        *repository.RoomRepo
	Showtimes    *repository.ShowtimeRepo
	Movies       *repository.MovieRepo
	Users        *repository.UserRepo
	Tickets      *repository.TicketRepo
	Payments     *repository.PaymentRepo
	Reservations *repository.ReservationRepo
	Inventory    *inventory.Inventory
	Pricing      *pricing.Engine
	Locker       lock.Locker
	Events       Publisher
	Log          logrus.FieldLogger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock sets the time source used for stamps, expiry and windows.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithHoldTimeout sets the age after which an unconfirmed hold is swept.
func WithHoldTimeout(d time.Duration) Option { return func(s *Service) { s.holdTimeout = d } }

// WithReservationTTL sets how long a reservation stays convertible.
func WithReservationTTL(d time.Duration) Option { return func(s *Service) { s.reservationTTL = d } }

// WithBookingWindows turns on the showtime date window checks for
// reservations and cancellations.
func WithBookingWindows(on bool) Option { return func(s *Service) { s.enforceWindows = on } }

// WithCodeGenerator replaces the reservation code generator.
func WithCodeGenerator(gen func() string) Option { return func(s *Service) { s.newCode = gen } }

// Service runs the booking flows.
type Service struct {
	Deps

	now            func() time.Time
	holdTimeout    time.Duration
	reservationTTL time.Duration
	enforceWindows bool
	newCode        func() string
}

// New returns a Service with a 10 minute hold timeout and 24 hour
// reservations unless overridden.
func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		Deps:           deps,
		now:            time.Now,
		holdTimeout:    10 * time.Minute,
		reservationTTL: 24 * time.Hour,
		newCode:        NewReservationCode,
	}
	if s.Events == nil {
		s.Events = noopPublisher{}
	}
	if s.Locker == nil {
		s.Locker = lock.NewLocal()
	}
	if s.Log == nil {
		s.Log = logrus.StandardLogger()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request describes a purchase or reservation of one or more seats of a
// single class for one showtime.
type Request struct {
	UserID     uint64
	MovieID    uint64
	RoomID     uint64
	ShowtimeID uint64
	Class      model.SeatClass
	Seats      []string
	Method     model.PaymentMethod
}

func (r Request) validate() error {
	if r.UserID == 0 || r.MovieID == 0 || r.RoomID == 0 || r.ShowtimeID == 0 {
		return fmt.Errorf("%w: user, movie, room and showtime are required", model.ErrInvalidInput)
	}
	if _, err := model.ParseSeatClass(string(r.Class)); err != nil {
		return err
	}
	if len(r.Seats) == 0 {
		return fmt.Errorf("%w: at least one seat is required", model.ErrInvalidInput)
	}
	if dup := lo.FindDuplicates(r.Seats); len(dup) > 0 {
		return fmt.Errorf("%w: seat %s requested twice", model.ErrInvalidInput, dup[0])
	}
	return nil
}

// target is the resolved context of a request.
type target struct {
	user     *model.User
	room     *model.Room
	showtime *model.Showtime
	startsAt time.Time
}

// resolve loads and cross-checks the entities a request names.  A
// showtime that does not belong to the requested movie and room is
// reported as not found.
func (s *Service) resolve(ctx context.Context, r Request) (*target, error) {
	user, err := s.Users.GetByID(ctx, r.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Movies.GetByID(ctx, r.MovieID); err != nil {
		return nil, err
	}
	st, err := s.Showtimes.GetByID(ctx, r.ShowtimeID)
	if err != nil {
		return nil, err
	}
	if st.MovieID != r.MovieID || st.RoomID != r.RoomID {
		return nil, fmt.Errorf("showtime %d for movie %d in room %d: %w", r.ShowtimeID, r.MovieID, r.RoomID, model.ErrNotFound)
	}
	room, err := s.Rooms.GetByID(ctx, r.RoomID)
	if err != nil {
		return nil, err
	}
	startsAt, err := st.StartsAt()
	if err != nil {
		return nil, err
	}
	return &target{user: user, room: room, showtime: st, startsAt: startsAt}, nil
}

// price quotes one seat for the target.
func (s *Service) price(t *target, class model.SeatClass) (int, error) {
	birth, err := t.user.Birth()
	if err != nil {
		return 0, err
	}
	amount, err := s.Pricing.Price(t.room.Format, class, birth, t.startsAt)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, fmt.Errorf("%w: no fare for %s %s seats", model.ErrInvalidInput, t.room.Format, class)
	}
	return amount, nil
}

// holdAll holds every seat or none.  On the first failure the seats
// already held are released and the error is returned.
func (s *Service) holdAll(ctx context.Context, r Request) ([]string, error) {
	held := make([]string, 0, len(r.Seats))
	for _, seat := range r.Seats {
		if err := s.Inventory.Hold(ctx, r.RoomID, r.ShowtimeID, r.Class, seat); err != nil {
			s.releaseAll(ctx, r.RoomID, r.ShowtimeID, r.Class, held, "rollback")
			return nil, err
		}
		held = append(held, seat)
	}
	return held, nil
}

// releaseAll returns seats to the pool, logging failures.  It is used on
// cleanup paths and never fails.
func (s *Service) releaseAll(ctx context.Context, roomID, showtimeID uint64, class model.SeatClass, seats []string, reason string) int {
	n := 0
	for _, seat := range seats {
		ok, err := s.Inventory.Release(ctx, roomID, showtimeID, class, seat)
		if err != nil {
			s.Log.WithError(err).WithFields(logrus.Fields{
				"room_id":     roomID,
				"showtime_id": showtimeID,
				"seat":        seat,
				"reason":      reason,
			}).Error("booking: seat release failed")
			continue
		}
		if ok {
			n++
			metrics.SeatReleases.WithLabelValues(reason).Inc()
		}
	}
	return n
}

// lockShowtime acquires the room/showtime lock domain.
func (s *Service) lockShowtime(ctx context.Context, roomID, showtimeID uint64) (func(), error) {
	unlock, err := s.Locker.Lock(ctx, lock.Key(roomID, showtimeID))
	if err != nil {
		return nil, fmt.Errorf("lock room %d showtime %d: %w", roomID, showtimeID, err)
	}
	return unlock, nil
}

// undo collects compensating steps for records already written; run
// executes them newest first.
type undo struct {
	log   logrus.FieldLogger
	steps []func(context.Context) error
}

func (u *undo) push(step func(context.Context) error) { u.steps = append(u.steps, step) }

func (u *undo) run(ctx context.Context) {
	for i := len(u.steps) - 1; i >= 0; i-- {
		if err := u.steps[i](ctx); err != nil {
			u.log.WithError(err).Error("booking: compensation step failed")
		}
	}
}

// errSkip aborts a store update that found nothing to do.
var errSkip = errors.New("skip")

// partial reports a failure that happened after records were written.
func (s *Service) partial(flow string, err error, fields logrus.Fields) error {
	metrics.PartialCommits.Inc()
	s.Log.WithError(err).WithFields(fields).WithField("flow", flow).Error("booking: partial commit rolled back")
	return fmt.Errorf("%w: %s: %v", model.ErrPartialCommit, flow, err)
}

func (s *Service) publish(ctx context.Context, ev queue.BookingEvent) {
	ev.OccurredAt = s.now().UTC()
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Log.WithError(err).WithField("type", ev.Type).Warn("booking: event not published")
	}
}

// outcome labels an error for the booking outcome metric.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrSeatUnavailable):
		return "seat_unavailable"
	case errors.Is(err, model.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrExpired):
		return "expired"
	case errors.Is(err, model.ErrInvalidState), errors.Is(err, model.ErrAlreadyCancelled):
		return "invalid_state"
	case errors.Is(err, model.ErrPartialCommit):
		return "partial_commit"
	default:
		return "error"
	}
}

func observe(flow string, err error) {
	metrics.BookingOutcomes.WithLabelValues(flow, outcome(err)).Inc()
}
