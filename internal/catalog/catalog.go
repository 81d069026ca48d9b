// Package catalog manages rooms, movies and the showtime schedule.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/inventory"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/repository"
)

type Service struct {
	rooms     *repository.RoomRepo
	movies    *repository.MovieRepo
	showtimes *repository.ShowtimeRepo
	inv       *inventory.Inventory
	log       logrus.FieldLogger
	now       func() time.Time
	settled   inventory.Settled
}

func New(rooms *repository.RoomRepo, movies *repository.MovieRepo, showtimes *repository.ShowtimeRepo, inv *inventory.Inventory, log logrus.FieldLogger) *Service {
	return &Service{rooms: rooms, movies: movies, showtimes: showtimes, inv: inv, log: log, now: time.Now}
}

// WithSettlement lets RetireShowtime drop a finished showtime whose
// bookings settled accepts.  Without it only showtimes with no taken seat
// can be retired.
func (s *Service) WithSettlement(settled inventory.Settled) *Service {
	s.settled = settled
	return s
}

// RoomInput describes a room to create.
type RoomInput struct {
	Name         string
	Format       model.RoomFormat
	Standard     int
	Preferential int
}

// CreateRoom creates a room with a generated layout: standard seats S01,
// S02, ... followed by preferential seats P01, P02, ...  2D rooms have no
// preferential seats.
func (s *Service) CreateRoom(ctx context.Context, in RoomInput) (*model.Room, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", model.ErrInvalidInput)
	}
	format, err := model.ParseRoomFormat(string(in.Format))
	if err != nil {
		return nil, err
	}
	if in.Standard < 0 || in.Preferential < 0 || in.Standard+in.Preferential == 0 {
		return nil, fmt.Errorf("%w: a room needs a positive number of seats", model.ErrInvalidInput)
	}
	if format == model.Format2D && in.Preferential > 0 {
		return nil, fmt.Errorf("%w: 2D rooms have no preferential seats", model.ErrInvalidInput)
	}

	capacity := map[model.SeatClass]int{model.SeatStandard: in.Standard}
	if format == model.Format3D {
		capacity[model.SeatPreferential] = in.Preferential
	}
	room := &model.Room{
		Name:      name,
		Format:    format,
		Capacity:  capacity,
		Available: lo.Assign(capacity),
		Layout:    append(layout("S", model.SeatStandard, in.Standard), layout("P", model.SeatPreferential, in.Preferential)...),
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"room_id": room.ID, "format": format}).Info("catalog: room created")
	return room, nil
}

func layout(prefix string, class model.SeatClass, n int) []model.SeatSpec {
	out := make([]model.SeatSpec, n)
	for i := range out {
		out[i] = model.SeatSpec{ID: fmt.Sprintf("%s%02d", prefix, i+1), Class: class}
	}
	return out
}

// SetRoomActive soft-enables or disables a room.  Disabled rooms keep
// their showtimes but accept no new ones.
func (s *Service) SetRoomActive(ctx context.Context, id uint64, active bool) (*model.Room, error) {
	return s.rooms.Mutate(ctx, id, func(r *model.Room) error {
		r.IsActive = active
		return nil
	})
}

func (s *Service) Rooms(ctx context.Context) ([]model.Room, error) { return s.rooms.List(ctx) }

func (s *Service) Room(ctx context.Context, id uint64) (*model.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

// MovieInput describes a movie to add to the catalog.
type MovieInput struct {
	Title       string
	Genre       string
	DurationMin int
	Rating      string
	Format      model.RoomFormat
}

func (s *Service) CreateMovie(ctx context.Context, in MovieInput) (*model.Movie, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: movie title is required", model.ErrInvalidInput)
	}
	if in.DurationMin <= 0 {
		return nil, fmt.Errorf("%w: movie duration must be positive", model.ErrInvalidInput)
	}
	format, err := model.ParseRoomFormat(string(in.Format))
	if err != nil {
		return nil, err
	}
	m := &model.Movie{
		Title:       title,
		Genre:       strings.TrimSpace(in.Genre),
		DurationMin: in.DurationMin,
		Rating:      strings.TrimSpace(in.Rating),
		Format:      format,
		CreatedAt:   s.now().UTC(),
	}
	if _, err := s.movies.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Movies(ctx context.Context) ([]model.Movie, error) { return s.movies.List(ctx) }

func (s *Service) Movie(ctx context.Context, id uint64) (*model.Movie, error) {
	return s.movies.GetByID(ctx, id)
}
