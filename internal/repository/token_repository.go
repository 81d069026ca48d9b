package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

// ErrTokenInvalid is returned for unknown, expired or revoked refresh
// tokens.
var ErrTokenInvalid = errors.New("refresh token invalid")

// TokenRepo persists and validates refresh tokens by hash.
type TokenRepo struct {
	c collection[model.RefreshToken]
}

func NewTokenRepo(s store.Store) *TokenRepo {
	return &TokenRepo{c: collection[model.RefreshToken]{
		store: s, kind: store.Tokens, what: "refresh token",
		idOf:  func(t *model.RefreshToken) uint64 { return t.ID },
		setID: func(t *model.RefreshToken, id uint64) { t.ID = id },
	}}
}

// StoreRefresh records a new token hash for userID.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.c.upsert(ctx, &model.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// ValidateRefresh returns the owner of a usable token.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	found, err := r.c.find(ctx, func(t *model.RefreshToken) bool { return t.TokenHash == tokenHash })
	if err != nil {
		return 0, err
	}
	if len(found) == 0 || !found[0].Usable(time.Now().UTC()) {
		return 0, ErrTokenInvalid
	}
	return found[0].UserID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	return r.revoke(ctx, func(t *model.RefreshToken) bool { return t.TokenHash == tokenHash })
}

// RevokeAllForUser revokes all active tokens of userID.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return r.revoke(ctx, func(t *model.RefreshToken) bool { return t.UserID == userID })
}

func (r *TokenRepo) revoke(ctx context.Context, match func(*model.RefreshToken) bool) error {
	targets, err := r.c.find(ctx, func(t *model.RefreshToken) bool { return match(t) && t.RevokedAt == nil })
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, t := range targets {
		_, err := r.c.mutate(ctx, t.ID, func(v *model.RefreshToken) error {
			v.RevokedAt = &now
			return nil
		})
		if err != nil {
			return fmt.Errorf("revoke token %d: %w", t.ID, err)
		}
	}
	return nil
}
