package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

// Booking windows in calendar days between today and the showtime date.
const (
	reserveMinDays = 2
	reserveMaxDays = 7
	cancelMinDays  = 1
	cancelMaxDays  = 2
)

// DaysUntil counts calendar days from now's date to the showtime's date,
// both read in UTC.
func DaysUntil(now, showtime time.Time) int {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = showtime.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24)
}

// ReserveWindow accepts showtimes two to seven days ahead.
func ReserveWindow(now, showtime time.Time) error {
	if n := DaysUntil(now, showtime); n < reserveMinDays || n > reserveMaxDays {
		return fmt.Errorf("%w: reservations open %d to %d days before the show, this one is %d days away",
			model.ErrInvalidInput, reserveMinDays, reserveMaxDays, n)
	}
	return nil
}

// CancelWindow accepts showtimes one to two days ahead.
func CancelWindow(now, showtime time.Time) error {
	if n := DaysUntil(now, showtime); n < cancelMinDays || n > cancelMaxDays {
		return fmt.Errorf("%w: cancellations are accepted %d to %d days before the show, this one is %d days away",
			model.ErrInvalidInput, cancelMinDays, cancelMaxDays, n)
	}
	return nil
}

func (s *Service) checkCancelWindow(ctx context.Context, showtimeID uint64) error {
	st, err := s.Showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return err
	}
	at, err := st.StartsAt()
	if err != nil {
		return err
	}
	return CancelWindow(s.now(), at)
}
