// Package repository provides typed access to the record store.  Each
// repository wraps one entity kind; lookups of missing ids return an
// error wrapping model.ErrNotFound so that handlers can translate it into
// an HTTP 404 response.
package repository

import (
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email already registered")

func notFound(what string, id uint64) error {
	return fmt.Errorf("%s %d: %w", what, id, model.ErrNotFound)
}
