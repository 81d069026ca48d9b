package concessions

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/queue"
	"github.com/iliyamo/cinema-ops-manager/internal/repository"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
	"github.com/iliyamo/cinema-ops-manager/internal/store/storetest"
)

type recorder struct{ events []queue.BookingEvent }

func (r *recorder) Publish(_ context.Context, ev queue.BookingEvent) error {
	r.events = append(r.events, ev)
	return nil
}

type fixture struct {
	svc      *Service
	faulty   *storetest.Faulty
	items    *repository.MenuRepo
	payments *repository.PaymentRepo
	events   *recorder
	popcorn  *model.MenuItem
	soda     *model.MenuItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	js, err := store.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	faulty := storetest.NewFaulty(js)
	log, _ := test.NewNullLogger()

	f := &fixture{
		faulty:   faulty,
		items:    repository.NewMenuRepo(faulty),
		payments: repository.NewPaymentRepo(faulty),
		events:   &recorder{},
	}
	fixed := time.Date(2026, 10, 20, 13, 0, 0, 0, time.UTC)
	f.svc = New(f.items, repository.NewOrderRepo(faulty), f.payments, f.events, log).
		WithClock(func() time.Time { return fixed })

	ctx := context.Background()
	f.popcorn, err = f.svc.AddItem(ctx, ItemInput{Name: "Popcorn", Kind: model.MenuSnack, Price: 9000, Stock: 5})
	require.NoError(t, err)
	f.soda, err = f.svc.AddItem(ctx, ItemInput{Name: "Soda", Kind: model.MenuDrink, Price: 6000, Stock: 2})
	require.NoError(t, err)
	return f
}

func (f *fixture) stock(t *testing.T, id uint64) int {
	t.Helper()
	it, err := f.items.GetByID(context.Background(), id)
	require.NoError(t, err)
	return it.Stock
}

func TestAddItem_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []ItemInput{
		{Name: "", Kind: model.MenuSnack, Price: 1000},
		{Name: "Nachos", Kind: "meal", Price: 1000},
		{Name: "Nachos", Kind: model.MenuSnack, Price: 0},
		{Name: "Nachos", Kind: model.MenuSnack, Price: 1000, Stock: -1},
	}
	for _, in := range cases {
		_, err := f.svc.AddItem(ctx, in)
		assert.ErrorIs(t, err, model.ErrInvalidInput, "%+v", in)
	}
}

func TestMenu(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	off := false
	_, err := f.svc.AddItem(ctx, ItemInput{Name: "Combo 1", Kind: model.MenuCombo, Price: 21000, Stock: 1})
	require.NoError(t, err)
	_, err = f.svc.UpdateItem(ctx, f.soda.ID, nil, &off)
	require.NoError(t, err)

	menu, err := f.svc.Menu(ctx, "")
	require.NoError(t, err)
	require.Len(t, menu, 2)
	assert.Equal(t, "Combo 1", menu[0].Name)
	assert.Equal(t, "Popcorn", menu[1].Name)

	snacks, err := f.svc.Menu(ctx, model.MenuSnack)
	require.NoError(t, err)
	require.Len(t, snacks, 1)

	_, err = f.svc.Menu(ctx, "meal")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.PlaceOrder(ctx, 7, []LineInput{
		{ItemID: f.popcorn.ID, Quantity: 1},
		{ItemID: f.soda.ID, Quantity: 2},
		{ItemID: f.popcorn.ID, Quantity: 1},
	}, "")
	require.NoError(t, err)

	require.Len(t, o.Lines, 2)
	assert.Equal(t, model.OrderLine{ItemID: f.popcorn.ID, Name: "Popcorn", Quantity: 2, UnitPrice: 9000}, o.Lines[0])
	assert.Equal(t, 30000, o.Total)
	assert.Equal(t, model.MethodCard, o.Method)
	assert.Equal(t, 3, f.stock(t, f.popcorn.ID))
	assert.Equal(t, 0, f.stock(t, f.soda.ID))

	pay, err := f.payments.GetByID(ctx, o.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, 30000, pay.Amount)
	require.NotNil(t, pay.OrderID)
	assert.Equal(t, o.ID, *pay.OrderID)
	assert.Nil(t, pay.TicketID)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, queue.OrderPlaced, f.events.events[0].Type)
}

func TestPlaceOrder_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, 7, []LineInput{
		{ItemID: f.popcorn.ID, Quantity: 2},
		{ItemID: f.soda.ID, Quantity: 3},
	}, model.MethodCash)
	assert.ErrorIs(t, err, model.ErrInvalidState)
	assert.Equal(t, 5, f.stock(t, f.popcorn.ID))
	assert.Equal(t, 2, f.stock(t, f.soda.ID))

	_, err = f.svc.PlaceOrder(ctx, 7, []LineInput{{ItemID: f.popcorn.ID, Quantity: 1}, {ItemID: 99, Quantity: 1}}, "")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 5, f.stock(t, f.popcorn.ID))

	_, err = f.svc.PlaceOrder(ctx, 7, []LineInput{{ItemID: f.popcorn.ID, Quantity: 0}}, "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = f.svc.PlaceOrder(ctx, 7, nil, "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = f.svc.PlaceOrder(ctx, 7, []LineInput{{ItemID: f.popcorn.ID, Quantity: 1}}, "bitcoin")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPlaceOrder_InactiveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	off := false
	_, err := f.svc.UpdateItem(ctx, f.soda.ID, nil, &off)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, 7, []LineInput{{ItemID: f.soda.ID, Quantity: 1}}, "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPlaceOrder_PaymentFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.faulty.FailWrites(store.Payments, 0)

	_, err := f.svc.PlaceOrder(ctx, 7, []LineInput{{ItemID: f.popcorn.ID, Quantity: 2}}, "")
	assert.ErrorIs(t, err, model.ErrPartialCommit)
	assert.Equal(t, 5, f.stock(t, f.popcorn.ID))

	orders, err := f.svc.UserOrders(ctx, 7)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderCancelled, orders[0].Status)
	assert.Empty(t, f.events.events)
}

func TestPlaceOrder_OrderWriteFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.faulty.FailWrites(store.FoodOrders, 0)

	_, err := f.svc.PlaceOrder(ctx, 7, []LineInput{{ItemID: f.popcorn.ID, Quantity: 2}}, "")
	assert.ErrorIs(t, err, storetest.ErrInjected)
	assert.NotErrorIs(t, err, model.ErrPartialCommit)
	assert.Equal(t, 5, f.stock(t, f.popcorn.ID))
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.svc.PlaceOrder(ctx, 7, []LineInput{{ItemID: f.soda.ID, Quantity: 2}}, "")
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, 8, o.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	got, err := f.svc.CancelOrder(ctx, 7, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
	assert.Equal(t, 2, f.stock(t, f.soda.ID))

	pay, err := f.payments.GetByID(ctx, o.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCancelled, pay.Status)

	_, err = f.svc.CancelOrder(ctx, 7, o.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyCancelled)
	assert.Equal(t, 2, f.stock(t, f.soda.ID))
}

func TestOrderLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.PlaceOrder(ctx, 7, []LineInput{{ItemID: f.popcorn.ID, Quantity: 1}}, "")
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(ctx, 7, []LineInput{{ItemID: f.popcorn.ID, Quantity: 1}}, "")
	require.NoError(t, err)

	got, err := f.svc.Order(ctx, 7, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Total, got.Total)
	_, err = f.svc.Order(ctx, 8, first.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	orders, err := f.svc.UserOrders(ctx, 7)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
}
