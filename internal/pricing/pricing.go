// Package pricing computes ticket prices from room format, seat class,
// purchaser age and showtime.  It has no state beyond its price table and
// clock.
package pricing

import (
	"fmt"
	"time"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

// Key addresses the base price table.
type Key struct {
	Format model.RoomFormat
	Class  model.SeatClass
}

// Table holds the fares in pesos.
type Table struct {
	Child  int
	Senior int
	Base   map[Key]int
}

// DefaultTable is the fare table in force.  2D rooms have no preferential
// seating, so that combination is deliberately absent.
var DefaultTable = Table{
	Child:  15000,
	Senior: 13000,
	Base: map[Key]int{
		{model.Format2D, model.SeatStandard}:     18000,
		{model.Format3D, model.SeatStandard}:     22000,
		{model.Format3D, model.SeatPreferential}: 25000,
	},
}

const (
	childMaxAge    = 12 // exclusive
	seniorMinAge   = 60
	promoStartHour = 12
	promoEndHour   = 18 // exclusive
)

// Engine prices tickets.
type Engine struct {
	table Table
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTable overrides the fare table.
func WithTable(t Table) Option { return func(e *Engine) { e.table = t } }

// WithClock overrides the clock used for age computation.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New returns an engine using DefaultTable and the wall clock.
func New(opts ...Option) *Engine {
	e := &Engine{table: DefaultTable, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Price returns the fare for one seat.  The age fare is decided first;
// the Tuesday/Thursday afternoon preferential promotion then halves the
// resulting price unless it is a child fare.  An unknown (format, class)
// pair yields 0 so the caller can surface the configuration gap.
func (e *Engine) Price(format model.RoomFormat, class model.SeatClass, birthDate, showtime time.Time) (int, error) {
	if birthDate.IsZero() {
		return 0, fmt.Errorf("%w: birth date is required", model.ErrInvalidInput)
	}
	if showtime.IsZero() {
		return 0, fmt.Errorf("%w: showtime is required", model.ErrInvalidInput)
	}

	age := Age(birthDate, e.now())
	child := false
	var price int
	switch {
	case age < childMaxAge:
		price = e.table.Child
		child = true
	case age >= seniorMinAge:
		price = e.table.Senior
	default:
		price = e.table.Base[Key{format, class}]
	}

	if !child && class == model.SeatPreferential && promoApplies(showtime) {
		price /= 2
	}
	return price, nil
}

// Quote parses the raw purchaser birth date and showtime strings and
// prices the seat.
func (e *Engine) Quote(format model.RoomFormat, class model.SeatClass, birthDate, showDate, showClock string) (int, error) {
	birth, err := time.ParseInLocation(model.DateLayout, birthDate, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: birth date %q", model.ErrInvalidInput, birthDate)
	}
	at, err := model.CombineDateTime(showDate, showClock)
	if err != nil {
		return 0, err
	}
	return e.Price(format, class, birth, at)
}

// Age returns whole years between birth and now: the year difference,
// minus one when the birthday has not yet occurred this year.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func promoApplies(showtime time.Time) bool {
	wd := showtime.Weekday()
	if wd != time.Tuesday && wd != time.Thursday {
		return false
	}
	h := showtime.Hour()
	return h >= promoStartHour && h < promoEndHour
}
