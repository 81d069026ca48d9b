package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

// 2026-10-15 is a Thursday.
var fixedNow = time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

func newEngine() *Engine {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func birthForAge(age int) time.Time {
	return time.Date(fixedNow.Year()-age, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func at(date, clock string) time.Time {
	t, err := model.CombineDateTime(date, clock)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPrice(t *testing.T) {
	tuesday := "2026-10-20"
	wednesday := "2026-10-21"
	thursday := "2026-10-22"

	cases := []struct {
		name   string
		format model.RoomFormat
		class  model.SeatClass
		age    int
		show   time.Time
		want   int
	}{
		{"adult 2D standard weekday morning", model.Format2D, model.SeatStandard, 40, at(wednesday, "10:00"), 18000},
		{"child 3D preferential no promo", model.Format3D, model.SeatPreferential, 8, at(tuesday, "14:00"), 15000},
		{"adult 3D preferential tuesday promo", model.Format3D, model.SeatPreferential, 30, at(tuesday, "14:00"), 12500},
		{"adult 3D preferential tuesday evening", model.Format3D, model.SeatPreferential, 30, at(tuesday, "19:00"), 25000},
		{"adult 3D preferential thursday noon", model.Format3D, model.SeatPreferential, 30, at(thursday, "12:00"), 12500},
		{"adult 3D preferential thursday 18h is outside", model.Format3D, model.SeatPreferential, 30, at(thursday, "18:00"), 25000},
		{"adult 3D preferential wednesday", model.Format3D, model.SeatPreferential, 30, at(wednesday, "14:00"), 25000},
		{"adult 3D standard tuesday no promo", model.Format3D, model.SeatStandard, 30, at(tuesday, "14:00"), 22000},
		{"senior preferential gets promo", model.Format3D, model.SeatPreferential, 65, at(tuesday, "14:00"), 6500},
		{"senior standard", model.Format2D, model.SeatStandard, 60, at(wednesday, "20:00"), 13000},
		{"unknown combination", model.Format2D, model.SeatPreferential, 30, at(wednesday, "10:00"), 0},
		{"child unknown combination", model.Format2D, model.SeatPreferential, 5, at(tuesday, "14:00"), 15000},
	}

	e := newEngine()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Price(tc.format, tc.class, birthForAge(tc.age), tc.show)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPrice_RejectsZeroTimes(t *testing.T) {
	e := newEngine()

	_, err := e.Price(model.Format2D, model.SeatStandard, time.Time{}, fixedNow)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = e.Price(model.Format2D, model.SeatStandard, birthForAge(30), time.Time{})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestQuote(t *testing.T) {
	e := newEngine()

	got, err := e.Quote(model.Format3D, model.SeatPreferential, "1996-03-04", "2026-10-20", "14:00")
	require.NoError(t, err)
	assert.Equal(t, 12500, got)

	_, err = e.Quote(model.Format3D, model.SeatPreferential, "04/03/1996", "2026-10-20", "14:00")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = e.Quote(model.Format3D, model.SeatPreferential, "1996-03-04", "2026-10-20", "2pm")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestAge(t *testing.T) {
	now := time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 30, Age(time.Date(1996, time.October, 15, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 29, Age(time.Date(1996, time.October, 16, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 29, Age(time.Date(1996, time.December, 1, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 11, Age(time.Date(2014, time.October, 16, 0, 0, 0, 0, time.UTC), now))
}
