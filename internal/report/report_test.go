package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/repository"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
)

type fixture struct {
	svc      *Service
	payments *repository.PaymentRepo
	tickets  *repository.TicketRepo
	movies   *repository.MovieRepo
	users    *repository.UserRepo
	resv     *repository.ReservationRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	f := &fixture{
		payments: repository.NewPaymentRepo(st),
		tickets:  repository.NewTicketRepo(st),
		movies:   repository.NewMovieRepo(st),
		users:    repository.NewUserRepo(st),
		resv:     repository.NewReservationRepo(st),
	}
	f.svc = New(f.payments, f.tickets, f.resv, f.movies, f.users)
	return f
}

func (f *fixture) sale(t *testing.T, userID, movieID uint64, amount int, at time.Time, status model.PaymentStatus) {
	t.Helper()
	ctx := context.Background()
	tk := &model.Ticket{UserID: userID, MovieID: movieID, Price: amount, Status: model.TicketActive, PurchasedAt: at}
	id, err := f.tickets.Record(ctx, tk)
	require.NoError(t, err)
	_, err = f.payments.Record(ctx, &model.Payment{UserID: userID, TicketID: &id, Amount: amount, Method: model.MethodCard, Status: status, CreatedAt: at})
	require.NoError(t, err)
}

func day(d, h int) time.Time { return time.Date(2026, 10, d, h, 0, 0, 0, time.UTC) }

func TestSales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dune, err := f.movies.Create(ctx, &model.Movie{Title: "Dune", DurationMin: 155, Format: model.Format3D})
	require.NoError(t, err)
	roma, err := f.movies.Create(ctx, &model.Movie{Title: "Roma", DurationMin: 135, Format: model.Format2D})
	require.NoError(t, err)
	idle, err := f.movies.Create(ctx, &model.Movie{Title: "Idle", DurationMin: 90, Format: model.Format2D})
	require.NoError(t, err)
	ana, err := f.users.Create(ctx, &model.User{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	leo, err := f.users.Create(ctx, &model.User{Name: "Leo", Email: "leo@example.com"})
	require.NoError(t, err)

	f.sale(t, ana, dune, 12500, day(10, 9), model.PaymentActive)
	f.sale(t, ana, roma, 18000, day(12, 23), model.PaymentActive)
	f.sale(t, leo, dune, 15000, day(12, 0), model.PaymentActive)
	f.sale(t, leo, dune, 22000, day(11, 10), model.PaymentCancelled)
	f.sale(t, leo, roma, 18000, day(13, 0), model.PaymentActive)
	f.sale(t, leo, roma, 18000, day(9, 23), model.PaymentActive)

	total, err := f.svc.Sales(ctx, "2026-10-10", "2026-10-12", ByNone)
	require.NoError(t, err)
	assert.Equal(t, 12500+18000+15000, total.Total)
	assert.Equal(t, 3, total.Payments)
	assert.Empty(t, total.Lines)

	byMovie, err := f.svc.Sales(ctx, "2026-10-10", "2026-10-12", ByMovie)
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{ID: dune, Name: "Dune", Amount: 27500, Payments: 2},
		{ID: roma, Name: "Roma", Amount: 18000, Payments: 1},
		{ID: idle, Name: "Idle", Amount: 0, Payments: 0},
	}, byMovie.Lines)

	byUser, err := f.svc.Sales(ctx, "2026-10-10", "2026-10-12", ByUser)
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{ID: ana, Name: "Ana", Amount: 30500, Payments: 2},
		{ID: leo, Name: "Leo", Amount: 15000, Payments: 1},
	}, byUser.Lines)
}

func TestSales_InvalidRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Sales(ctx, "2026-10-12", "2026-10-10", ByNone)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = f.svc.Sales(ctx, "yesterday", "2026-10-10", ByNone)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = ParseGroupBy("cinema")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSales_Concessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana, err := f.users.Create(ctx, &model.User{Name: "Ana", Email: "ana@example.com", BirthDate: "1990-01-01", Role: model.RoleClient})
	require.NoError(t, err)
	dune, err := f.movies.Create(ctx, &model.Movie{Title: "Dune", DurationMin: 155, Format: model.Format3D})
	require.NoError(t, err)
	f.sale(t, ana, dune, 18000, day(20, 14), model.PaymentActive)
	orderID := uint64(1)
	_, err = f.payments.Record(ctx, &model.Payment{UserID: ana, OrderID: &orderID, Amount: 9000, Method: model.MethodCash, Status: model.PaymentActive, CreatedAt: day(20, 15)})
	require.NoError(t, err)

	byMovie, err := f.svc.Sales(ctx, "2026-10-20", "2026-10-20", ByMovie)
	require.NoError(t, err)
	assert.Equal(t, 27000, byMovie.Total)
	assert.Equal(t, 9000, byMovie.Concessions)
	require.Len(t, byMovie.Lines, 1)
	assert.Equal(t, 18000, byMovie.Lines[0].Amount)

	byUser, err := f.svc.Sales(ctx, "2026-10-20", "2026-10-20", ByUser)
	require.NoError(t, err)
	require.Len(t, byUser.Lines, 1)
	assert.Equal(t, Line{ID: ana, Name: "Ana", Amount: 27000, Payments: 2}, byUser.Lines[0])
}
