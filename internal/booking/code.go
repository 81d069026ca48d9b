package booking

import (
	"strings"

	"github.com/lithammer/shortuuid/v3"
)

// NewReservationCode returns a short human-readable reservation code such
// as RSV-7KQ2M9XA.  Uniqueness is enforced by the reservation repository.
func NewReservationCode() string {
	return "RSV-" + strings.ToUpper(shortuuid.New()[:8])
}
