// Package inventory owns the seat counters of rooms and showtimes and the
// per-seat state of each showtime.  It is the only writer of those
// fields: a hold decrements the room and showtime counters together, a
// release increments both, and confirm only links the held seat to a
// ticket or reservation.  Hold timers are not tracked here; callers sweep
// stale holds through HeldSeats.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/metrics"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/repository"
)

// errNoChange aborts a store update that has nothing to write.
var errNoChange = errors.New("no change")

// Inventory performs seat operations.  All mutations are serialized by mu
// so the two counters of one seat event are written back to back.
type Inventory struct {
	rooms     *repository.RoomRepo
	showtimes *repository.ShowtimeRepo
	log       logrus.FieldLogger
	now       func() time.Time

	mu sync.Mutex
}

// New returns an Inventory over the given repositories.
func New(rooms *repository.RoomRepo, showtimes *repository.ShowtimeRepo, log logrus.FieldLogger) *Inventory {
	return &Inventory{rooms: rooms, showtimes: showtimes, log: log, now: time.Now}
}

// WithClock returns the inventory using now for hold stamps.
func (i *Inventory) WithClock(now func() time.Time) *Inventory {
	i.now = now
	return i
}

// Available returns the room's current free count for class.  A missing
// room or class yields 0 without error.
func (i *Inventory) Available(ctx context.Context, roomID uint64, class model.SeatClass) (int, error) {
	room, err := i.rooms.GetByID(ctx, roomID)
	if errors.Is(err, model.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return room.Available[class], nil
}

// ShowtimeAvailable returns the showtime's current free count for class,
// with the same missing-is-zero rule as Available.
func (i *Inventory) ShowtimeAvailable(ctx context.Context, showtimeID uint64, class model.SeatClass) (int, error) {
	st, err := i.showtimes.GetByID(ctx, showtimeID)
	if errors.Is(err, model.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return st.Available[class], nil
}

// Hold takes a free seat: it stamps the seat as held and decrements both
// counters of its class.  It fails with model.ErrSeatUnavailable when the
// seat is not free or either counter is already zero.
func (i *Inventory) Hold(ctx context.Context, roomID, showtimeID uint64, class model.SeatClass, seatID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	room, err := i.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Available[class] <= 0 {
		return fmt.Errorf("%w: room %d has no %s seats left", model.ErrSeatUnavailable, roomID, class)
	}

	heldAt := i.now().UTC()
	_, err = i.showtimes.Mutate(ctx, showtimeID, func(st *model.Showtime) error {
		seat, err := seatFor(st, roomID, class, seatID)
		if err != nil {
			return err
		}
		if !seat.Free() {
			return fmt.Errorf("%w: seat %s of showtime %d is taken", model.ErrSeatUnavailable, seatID, showtimeID)
		}
		if st.Available[class] <= 0 {
			return fmt.Errorf("%w: showtime %d has no %s seats left", model.ErrSeatUnavailable, showtimeID, class)
		}
		seat.HeldAt = &heldAt
		st.Available[class]--
		return nil
	})
	if err != nil {
		return err
	}

	_, err = i.rooms.Mutate(ctx, roomID, func(r *model.Room) error {
		if r.Available[class] <= 0 {
			return fmt.Errorf("%w: room %d has no %s seats left", model.ErrSeatUnavailable, roomID, class)
		}
		r.Available[class]--
		return nil
	})
	if err != nil {
		i.undoHold(ctx, showtimeID, class, seatID)
		return err
	}
	return nil
}

// undoHold reverts the showtime half of a hold whose room write failed.
func (i *Inventory) undoHold(ctx context.Context, showtimeID uint64, class model.SeatClass, seatID string) {
	_, err := i.showtimes.Mutate(ctx, showtimeID, func(st *model.Showtime) error {
		idx := st.SeatIndex(seatID)
		if idx < 0 || !st.Seats[idx].Held() {
			return errNoChange
		}
		st.Seats[idx].HeldAt = nil
		st.Available[class]++
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		i.log.WithError(err).WithFields(logrus.Fields{
			"showtime_id": showtimeID,
			"seat":        seatID,
		}).Error("inventory: could not revert showtime hold, counters drifted")
	}
}

// Confirm links a held seat to a ticket (occupied) or a reservation
// (reserved).  Counters are not touched; they moved at hold time.
func (i *Inventory) Confirm(ctx context.Context, roomID, showtimeID uint64, class model.SeatClass, seatID string, link model.SeatLink) error {
	if !link.Valid() {
		return fmt.Errorf("%w: seat link needs exactly one of ticket or reservation", model.ErrInvalidInput)
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	_, err := i.showtimes.Mutate(ctx, showtimeID, func(st *model.Showtime) error {
		seat, err := seatFor(st, roomID, class, seatID)
		if err != nil {
			return err
		}
		if !seat.Held() {
			return fmt.Errorf("%w: seat %s of showtime %d was not held", model.ErrSeatUnavailable, seatID, showtimeID)
		}
		applyLink(seat, link)
		return nil
	})
	return err
}

// Relink moves a confirmed seat from one owner to another, e.g. from a
// reservation to the ticket it was converted into.
func (i *Inventory) Relink(ctx context.Context, showtimeID uint64, seatID string, from, to model.SeatLink) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: seat link needs exactly one of ticket or reservation", model.ErrInvalidInput)
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	_, err := i.showtimes.Mutate(ctx, showtimeID, func(st *model.Showtime) error {
		idx := st.SeatIndex(seatID)
		if idx < 0 {
			return fmt.Errorf("seat %s of showtime %d: %w", seatID, showtimeID, model.ErrNotFound)
		}
		seat := &st.Seats[idx]
		if !from.Matches(*seat) {
			return fmt.Errorf("%w: seat %s of showtime %d is not linked as expected", model.ErrSeatUnavailable, seatID, showtimeID)
		}
		applyLink(seat, to)
		return nil
	})
	return err
}

// Release returns a held or confirmed seat to the pool and increments both
// counters.  Releasing a seat that is already free is a no-op reported as
// false.  A counter that would exceed capacity is clamped and logged.
func (i *Inventory) Release(ctx context.Context, roomID, showtimeID uint64, class model.SeatClass, seatID string) (bool, error) {
	return i.release(ctx, roomID, showtimeID, class, seatID, func(s model.Seat) bool { return !s.Free() })
}

// ReleaseHold releases a seat only if it is still held with a stamp older
// than cutoff.  A seat confirmed or re-held since it was listed is left
// alone and reported as false.
func (i *Inventory) ReleaseHold(ctx context.Context, roomID, showtimeID uint64, class model.SeatClass, seatID string, cutoff time.Time) (bool, error) {
	return i.release(ctx, roomID, showtimeID, class, seatID, func(s model.Seat) bool {
		return s.Held() && s.HeldAt.Before(cutoff)
	})
}

func (i *Inventory) release(ctx context.Context, roomID, showtimeID uint64, class model.SeatClass, seatID string, releasable func(model.Seat) bool) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	room, err := i.rooms.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	capacity := room.Capacity[class]

	_, err = i.showtimes.Mutate(ctx, showtimeID, func(st *model.Showtime) error {
		seat, err := seatFor(st, roomID, class, seatID)
		if err != nil {
			return err
		}
		if !releasable(*seat) {
			return errNoChange
		}
		*seat = model.Seat{ID: seat.ID, Class: seat.Class, Status: model.SeatAvailable}
		st.Available[class] = i.increment(st.Available[class], capacity, "showtime", showtimeID, class)
		return nil
	})
	if errors.Is(err, errNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = i.rooms.Mutate(ctx, roomID, func(r *model.Room) error {
		r.Available[class] = i.increment(r.Available[class], r.Capacity[class], "room", roomID, class)
		return nil
	})
	if err != nil {
		i.log.WithError(err).WithFields(logrus.Fields{
			"room_id":     roomID,
			"showtime_id": showtimeID,
			"seat":        seatID,
		}).Error("inventory: seat released but room counter not incremented")
		return true, err
	}
	return true, nil
}

func (i *Inventory) increment(cur, capacity int, scope string, id uint64, class model.SeatClass) int {
	if cur+1 > capacity {
		metrics.ClampedReleases.Inc()
		i.log.WithFields(logrus.Fields{
			"scope":    scope,
			"id":       id,
			"class":    class,
			"current":  cur,
			"capacity": capacity,
		}).Warn("inventory: release would exceed capacity, clamping")
		return capacity
	}
	return cur + 1
}

// HeldSeat describes a seat in the temporary hold sub-status.
type HeldSeat struct {
	RoomID     uint64
	ShowtimeID uint64
	SeatID     string
	Class      model.SeatClass
	HeldAt     time.Time
}

// HeldSeats returns every hold stamped before cutoff.
func (i *Inventory) HeldSeats(ctx context.Context, cutoff time.Time) ([]HeldSeat, error) {
	sts, err := i.showtimes.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []HeldSeat
	for _, st := range sts {
		for _, s := range st.Seats {
			if s.Held() && s.HeldAt.Before(cutoff) {
				out = append(out, HeldSeat{RoomID: st.RoomID, ShowtimeID: st.ID, SeatID: s.ID, Class: s.Class, HeldAt: *s.HeldAt})
			}
		}
	}
	return out, nil
}

func seatFor(st *model.Showtime, roomID uint64, class model.SeatClass, seatID string) (*model.Seat, error) {
	if st.RoomID != roomID {
		return nil, fmt.Errorf("%w: showtime %d is not screened in room %d", model.ErrInvalidInput, st.ID, roomID)
	}
	idx := st.SeatIndex(seatID)
	if idx < 0 {
		return nil, fmt.Errorf("seat %s of showtime %d: %w", seatID, st.ID, model.ErrNotFound)
	}
	seat := &st.Seats[idx]
	if seat.Class != class {
		return nil, fmt.Errorf("%w: seat %s is %s, not %s", model.ErrInvalidInput, seatID, seat.Class, class)
	}
	if st.Available == nil {
		st.Available = map[model.SeatClass]int{}
	}
	return seat, nil
}

func applyLink(seat *model.Seat, link model.SeatLink) {
	seat.HeldAt = nil
	if link.TicketID != 0 {
		id := link.TicketID
		seat.Status = model.SeatOccupied
		seat.TicketID = &id
		seat.ReservationID = nil
		return
	}
	id := link.ReservationID
	seat.Status = model.SeatReserved
	seat.ReservationID = &id
	seat.TicketID = nil
}
