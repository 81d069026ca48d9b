// Package report folds payments into sales totals.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/repository"
)

// GroupBy selects the axis of a sales report.
type GroupBy string

const (
	ByNone  GroupBy = ""
	ByMovie GroupBy = "movie"
	ByUser  GroupBy = "user"
)

// ParseGroupBy validates a group-by parameter.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case ByNone, ByMovie, ByUser:
		return g, nil
	}
	return "", fmt.Errorf("%w: unknown grouping %q", model.ErrInvalidInput, s)
}

// Line is the total of one movie or user.
type Line struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Amount   int    `json:"amount"`
	Payments int    `json:"payments"`
}

// Sales is the result of a report.  From and To are inclusive dates.
// Concessions is the part of Total paid for food orders; it is attributed
// to users but never to a movie.
type Sales struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	GroupBy     GroupBy `json:"group_by,omitempty"`
	Total       int     `json:"total"`
	Payments    int     `json:"payments"`
	Concessions int     `json:"concessions"`
	Lines       []Line  `json:"lines,omitempty"`
}

type Service struct {
	payments     *repository.PaymentRepo
	tickets      *repository.TicketRepo
	reservations *repository.ReservationRepo
	movies       *repository.MovieRepo
	users        *repository.UserRepo
}

func New(payments *repository.PaymentRepo, tickets *repository.TicketRepo, reservations *repository.ReservationRepo, movies *repository.MovieRepo, users *repository.UserRepo) *Service {
	return &Service{payments: payments, tickets: tickets, reservations: reservations, movies: movies, users: users}
}

// Sales sums active payments made between the from and to dates, both
// inclusive.  When grouped, every movie or user appears, with zero when it
// had no payments in range.
func (s *Service) Sales(ctx context.Context, from, to string, by GroupBy) (*Sales, error) {
	start, err := time.ParseInLocation(model.DateLayout, from, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: from date %q", model.ErrInvalidInput, from)
	}
	end, err := time.ParseInLocation(model.DateLayout, to, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: to date %q", model.ErrInvalidInput, to)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: from %s is after to %s", model.ErrInvalidInput, from, to)
	}
	end = end.AddDate(0, 0, 1) // exclusive upper bound

	payments, err := s.payments.List(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return nil, err
	}
	reservations, err := s.reservations.List(ctx)
	if err != nil {
		return nil, err
	}
	ticketByID := lo.KeyBy(tickets, func(t model.Ticket) uint64 { return t.ID })
	resByID := lo.KeyBy(reservations, func(r model.Reservation) uint64 { return r.ID })

	out := &Sales{From: from, To: to, GroupBy: by}
	lines := map[uint64]*Line{}
	switch by {
	case ByMovie:
		movies, err := s.movies.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range movies {
			lines[m.ID] = &Line{ID: m.ID, Name: m.Title}
		}
	case ByUser:
		users, err := s.users.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			lines[u.ID] = &Line{ID: u.ID, Name: u.Name}
		}
	}

	for _, p := range payments {
		if p.Status != model.PaymentActive || p.CreatedAt.Before(start) || !p.CreatedAt.Before(end) {
			continue
		}
		out.Total += p.Amount
		out.Payments++
		if p.OrderID != nil {
			out.Concessions += p.Amount
		}
		if by == ByNone {
			continue
		}
		movieID, userID, ok := owner(p, ticketByID, resByID)
		if !ok && p.OrderID != nil && by == ByUser {
			userID, ok = p.UserID, true
		}
		if !ok {
			continue
		}
		key := movieID
		if by == ByUser {
			key = userID
		}
		l, found := lines[key]
		if !found {
			l = &Line{ID: key}
			lines[key] = l
		}
		l.Amount += p.Amount
		l.Payments++
	}

	if by != ByNone {
		out.Lines = make([]Line, 0, len(lines))
		for _, l := range lines {
			out.Lines = append(out.Lines, *l)
		}
		sort.Slice(out.Lines, func(i, j int) bool { return out.Lines[i].ID < out.Lines[j].ID })
	}
	return out, nil
}

// owner resolves the movie and user a payment is attributed to, through
// its ticket or its reservation.
func owner(p model.Payment, tickets map[uint64]model.Ticket, reservations map[uint64]model.Reservation) (movieID, userID uint64, ok bool) {
	if p.TicketID != nil {
		if t, found := tickets[*p.TicketID]; found {
			return t.MovieID, t.UserID, true
		}
	}
	if p.ReservationID != nil {
		if r, found := reservations[*p.ReservationID]; found {
			return r.MovieID, r.UserID, true
		}
	}
	return 0, 0, false
}
