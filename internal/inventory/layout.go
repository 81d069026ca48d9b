package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

// SeatMap builds the initial per-seat state of a new showtime from the
// room layout, together with counters mirroring the room capacity.
func SeatMap(room *model.Room) ([]model.Seat, map[model.SeatClass]int) {
	seats := make([]model.Seat, 0, len(room.Layout))
	for _, spec := range room.Layout {
		seats = append(seats, model.Seat{ID: spec.ID, Class: spec.Class, Status: model.SeatAvailable})
	}
	avail := make(map[model.SeatClass]int, len(room.Capacity))
	for class, n := range room.Capacity {
		avail[class] = n
	}
	return seats, avail
}

// Settled reports whether the booking owning a taken seat is over, so the
// seat can be dropped together with its showtime.
type Settled func(ctx context.Context, seat model.Seat) (bool, error)

// RetireShowtime deletes a showtime.  A showtime whose seats are all free
// is always removed.  Taken seats block retirement unless the showtime has
// already started and settled accepts every one of them; their counts are
// then given back to the room.  Held seats always block.  A nil settled
// accepts no taken seat.
func (i *Inventory) RetireShowtime(ctx context.Context, showtimeID uint64, settled Settled) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	st, err := i.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return err
	}
	taken := map[model.SeatClass]int{}
	for _, s := range st.Seats {
		if s.Free() {
			continue
		}
		if s.Held() {
			return fmt.Errorf("%w: showtime %d has seat %s on hold", model.ErrInvalidState, showtimeID, s.ID)
		}
		if err := i.checkSettled(ctx, st, s, settled); err != nil {
			return err
		}
		taken[s.Class]++
	}

	if err := i.showtimes.Delete(ctx, showtimeID); err != nil {
		return err
	}
	if len(taken) == 0 {
		return nil
	}
	_, err = i.rooms.Mutate(ctx, st.RoomID, func(r *model.Room) error {
		if r.Available == nil {
			r.Available = map[model.SeatClass]int{}
		}
		for class, n := range taken {
			r.Available[class] = min(r.Available[class]+n, r.Capacity[class])
		}
		return nil
	})
	if err != nil {
		i.log.WithError(err).WithFields(logrus.Fields{
			"room_id":     st.RoomID,
			"showtime_id": showtimeID,
		}).Error("inventory: showtime retired but room counter not restored")
		return err
	}
	i.log.WithFields(logrus.Fields{"room_id": st.RoomID, "showtime_id": showtimeID, "seats": taken}).Info("inventory: seats of finished showtime returned to room")
	return nil
}

func (i *Inventory) checkSettled(ctx context.Context, st *model.Showtime, s model.Seat, settled Settled) error {
	booked := fmt.Errorf("%w: showtime %d still has booked seat %s", model.ErrInvalidState, st.ID, s.ID)
	if settled == nil {
		return booked
	}
	startsAt, err := st.StartsAt()
	if err != nil {
		return err
	}
	if i.now().Before(startsAt) {
		return booked
	}
	ok, err := settled(ctx, s)
	if err != nil {
		return err
	}
	if !ok {
		return booked
	}
	return nil
}

// Correction records a counter that Recount rewrote.
type Correction struct {
	Scope string // "room" or "showtime"
	ID    uint64
	Class model.SeatClass
	Was   int
	Now   int
}

// Recount recomputes every counter from the per-seat state: a showtime
// counter is its number of free seats, a room counter is its capacity
// minus the taken seats of all its showtimes.  Counters that disagree are
// rewritten and returned.
func (i *Inventory) Recount(ctx context.Context) ([]Correction, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	rooms, err := i.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	sts, err := i.showtimes.List(ctx)
	if err != nil {
		return nil, err
	}

	taken := make(map[uint64]map[model.SeatClass]int, len(rooms))
	var fixes []Correction
	for _, st := range sts {
		free := map[model.SeatClass]int{}
		for _, s := range st.Seats {
			if s.Free() {
				free[s.Class]++
				continue
			}
			if taken[st.RoomID] == nil {
				taken[st.RoomID] = map[model.SeatClass]int{}
			}
			taken[st.RoomID][s.Class]++
		}
		var local []Correction
		for class := range unionClasses(st.Available, free) {
			if st.Available[class] != free[class] {
				local = append(local, Correction{Scope: "showtime", ID: st.ID, Class: class, Was: st.Available[class], Now: free[class]})
			}
		}
		if len(local) == 0 {
			continue
		}
		_, err := i.showtimes.Mutate(ctx, st.ID, func(s *model.Showtime) error {
			s.Available = free
			return nil
		})
		if err != nil {
			return fixes, err
		}
		fixes = append(fixes, local...)
	}

	for _, room := range rooms {
		want := map[model.SeatClass]int{}
		for class, n := range room.Capacity {
			want[class] = max(n-taken[room.ID][class], 0)
		}
		var local []Correction
		for class := range unionClasses(room.Available, want) {
			if room.Available[class] != want[class] {
				local = append(local, Correction{Scope: "room", ID: room.ID, Class: class, Was: room.Available[class], Now: want[class]})
			}
		}
		if len(local) == 0 {
			continue
		}
		_, err := i.rooms.Mutate(ctx, room.ID, func(r *model.Room) error {
			r.Available = want
			return nil
		})
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return fixes, err
		}
		fixes = append(fixes, local...)
	}

	for _, f := range fixes {
		i.log.WithFields(logrus.Fields{
			"scope": f.Scope,
			"id":    f.ID,
			"class": f.Class,
			"was":   f.Was,
			"now":   f.Now,
		}).Warn("inventory: counter corrected")
	}
	return fixes, nil
}

func unionClasses(a, b map[model.SeatClass]int) map[model.SeatClass]struct{} {
	out := make(map[model.SeatClass]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}
