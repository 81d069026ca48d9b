package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// ErrCodeSpaceExhausted is returned when no unique reservation code could
// be generated.
var ErrCodeSpaceExhausted = errors.New("could not generate a unique reservation code")

// ReservationRepo provides access to reservations.  Codes are unique and
// compared case-insensitively.
type ReservationRepo struct {
	c collection[model.Reservation]
}

func NewReservationRepo(s store.Store) *ReservationRepo {
	return &ReservationRepo{c: collection[model.Reservation]{
		store: s, kind: store.Reservations, what: "reservation",
		idOf:  func(r *model.Reservation) uint64 { return r.ID },
		setID: func(r *model.Reservation, id uint64) { r.ID = id },
	}}
}

// Create inserts a reservation, assigning its id and a code produced by
// newCode that does not collide with any stored code.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation, newCode func() string) (uint64, error) {
	err := r.c.store.Update(ctx, store.Reservations, func(raws []json.RawMessage) ([]json.RawMessage, error) {
		existing, err := decodeAll[model.Reservation](store.Reservations, raws)
		if err != nil {
			return nil, err
		}
		used := make(map[string]struct{}, len(existing))
		var max uint64
		for _, e := range existing {
			used[strings.ToUpper(e.Code)] = struct{}{}
			if e.ID > max {
				max = e.ID
			}
		}
		res.Code = ""
		for i := 0; i < 16; i++ {
			code := strings.ToUpper(newCode())
			if _, taken := used[code]; !taken {
				res.Code = code
				break
			}
		}
		if res.Code == "" {
			return nil, ErrCodeSpaceExhausted
		}
		res.ID = max + 1
		b, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("encode reservation: %w", err)
		}
		return append(raws, b), nil
	})
	if err != nil {
		return 0, err
	}
	return res.ID, nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return r.c.get(ctx, id)
}

// GetByCode looks a reservation up by its human readable code.
func (r *ReservationRepo) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	found, err := r.c.find(ctx, func(res *model.Reservation) bool { return strings.ToUpper(res.Code) == code })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("reservation %q: %w", code, model.ErrNotFound)
	}
	return &found[0], nil
}

// ListByUser returns the reservations of a user.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return r.c.find(ctx, func(res *model.Reservation) bool { return res.UserID == userID })
}

// ListActive returns every reservation with active status.
func (r *ReservationRepo) ListActive(ctx context.Context) ([]model.Reservation, error) {
	return r.c.find(ctx, func(res *model.Reservation) bool { return res.Status == model.ReservationActive })
}

func (r *ReservationRepo) List(ctx context.Context) ([]model.Reservation, error) { return r.c.all(ctx) }

// Mutate applies fn to the stored reservation within one locked write.
func (r *ReservationRepo) Mutate(ctx context.Context, id uint64, fn func(*model.Reservation) error) (*model.Reservation, error) {
	return r.c.mutate(ctx, id, fn)
}
