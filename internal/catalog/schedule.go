package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/inventory"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

// ShowtimeInput describes a screening to schedule.  EndTime may be empty,
// in which case it is derived from the movie duration.
type ShowtimeInput struct {
	MovieID   uint64
	RoomID    uint64
	Date      string
	StartTime string
	EndTime   string
}

// ScheduleShowtime creates a showtime whose seat map copies the room
// layout and whose counters mirror the room capacity.  The movie format
// must match the room format and the slot must not overlap another
// showtime of the room.
func (s *Service) ScheduleShowtime(ctx context.Context, in ShowtimeInput) (*model.Showtime, error) {
	movie, err := s.movies.GetByID(ctx, in.MovieID)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.GetByID(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, fmt.Errorf("%w: room %d is disabled", model.ErrInvalidState, room.ID)
	}
	if movie.Format != room.Format {
		return nil, fmt.Errorf("%w: %s movie cannot play in a %s room", model.ErrInvalidInput, movie.Format, room.Format)
	}

	start, err := model.CombineDateTime(in.Date, in.StartTime)
	if err != nil {
		return nil, err
	}
	var end time.Time
	if in.EndTime == "" {
		end = start.Add(time.Duration(movie.DurationMin) * time.Minute)
	} else {
		if end, err = model.CombineDateTime(in.Date, in.EndTime); err != nil {
			return nil, err
		}
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: showtime must end after it starts", model.ErrInvalidInput)
	}

	existing, err := s.showtimes.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if other.RoomID != room.ID || other.Date != in.Date {
			continue
		}
		oStart, oerr := other.StartsAt()
		oEnd, eerr := model.CombineDateTime(other.Date, other.EndTime)
		if oerr != nil || eerr != nil {
			continue
		}
		if start.Before(oEnd) && oStart.Before(end) {
			return nil, fmt.Errorf("%w: room %d is busy with showtime %d at %s", model.ErrInvalidState, room.ID, other.ID, other.StartTime)
		}
	}

	seats, avail := inventory.SeatMap(room)
	st := &model.Showtime{
		MovieID:   movie.ID,
		RoomID:    room.ID,
		Date:      in.Date,
		StartTime: start.Format(model.TimeLayout),
		EndTime:   end.Format(model.TimeLayout),
		Session:   model.SessionFor(start.Hour()),
		Available: avail,
		Seats:     seats,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.showtimes.Create(ctx, st); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"showtime_id": st.ID,
		"movie_id":    movie.ID,
		"room_id":     room.ID,
		"starts_at":   start,
	}).Info("catalog: showtime scheduled")
	return st, nil
}

// RetireShowtime removes a showtime that has no booked seats, or one that
// already ran and whose bookings are all settled.
func (s *Service) RetireShowtime(ctx context.Context, id uint64) error {
	if err := s.inv.RetireShowtime(ctx, id, s.settled); err != nil {
		return err
	}
	s.log.WithField("showtime_id", id).Info("catalog: showtime retired")
	return nil
}

// Showtimes lists showtimes, restricted to one movie when movieID is set.
func (s *Service) Showtimes(ctx context.Context, movieID uint64) ([]model.Showtime, error) {
	if movieID != 0 {
		return s.showtimes.ListByMovie(ctx, movieID)
	}
	return s.showtimes.List(ctx)
}

func (s *Service) Showtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	return s.showtimes.GetByID(ctx, id)
}
