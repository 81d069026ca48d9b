package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// UserRepo encapsulates access to the users collection.
type UserRepo struct {
	c collection[model.User]
}

func NewUserRepo(s store.Store) *UserRepo {
	return &UserRepo{c: collection[model.User]{
		store: s, kind: store.Users, what: "user",
		idOf:  func(u *model.User) uint64 { return u.ID },
		setID: func(u *model.User, id uint64) { u.ID = id },
	}}
}

// Create inserts a user.  Emails are compared case-insensitively and must
// be unique; a duplicate returns ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.c.store.Update(ctx, store.Users, func(raws []json.RawMessage) ([]json.RawMessage, error) {
		existing, err := decodeAll[model.User](store.Users, raws)
		if err != nil {
			return nil, err
		}
		for _, e := range existing {
			if e.Email == u.Email {
				return nil, ErrEmailTaken
			}
		}
		max, err := store.MaxID(raws)
		if err != nil {
			return nil, err
		}
		u.ID = max + 1
		b, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("encode user: %w", err)
		}
		return append(raws, b), nil
	})
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// GetByID returns the user or an error wrapping model.ErrNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.c.get(ctx, id)
}

// GetByEmail looks a user up by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	found, err := r.c.find(ctx, func(u *model.User) bool { return u.Email == email })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("user %q: %w", email, model.ErrNotFound)
	}
	return &found[0], nil
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) { return r.c.all(ctx) }
