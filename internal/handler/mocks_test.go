package handler

import (
	"context"

	"github.com/iliyamo/cinema-ops-manager/internal/booking"
	"github.com/iliyamo/cinema-ops-manager/internal/catalog"
	"github.com/iliyamo/cinema-ops-manager/internal/concessions"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/report"
)

// --- Mock BookingService ---

type mockBooking struct {
	purchaseFn   func(ctx context.Context, r booking.Request) ([]model.Ticket, error)
	reserveFn    func(ctx context.Context, r booking.Request) (*model.Reservation, error)
	convertFn    func(ctx context.Context, userID, id uint64, method model.PaymentMethod) (*model.Ticket, error)
	cancelResFn  func(ctx context.Context, userID, id uint64) (*model.Reservation, error)
	cancelTickFn func(ctx context.Context, userID, id uint64) (*model.Ticket, error)
	markUsedFn   func(ctx context.Context, id uint64) (*model.Ticket, error)
	byCodeFn     func(ctx context.Context, userID uint64, code string) (*model.Reservation, error)
}

func (m *mockBooking) Purchase(ctx context.Context, r booking.Request) ([]model.Ticket, error) {
	return m.purchaseFn(ctx, r)
}
func (m *mockBooking) Reserve(ctx context.Context, r booking.Request) (*model.Reservation, error) {
	return m.reserveFn(ctx, r)
}
func (m *mockBooking) ConvertReservation(ctx context.Context, userID, id uint64, method model.PaymentMethod) (*model.Ticket, error) {
	return m.convertFn(ctx, userID, id, method)
}
func (m *mockBooking) CancelReservation(ctx context.Context, userID, id uint64) (*model.Reservation, error) {
	return m.cancelResFn(ctx, userID, id)
}
func (m *mockBooking) CancelTicket(ctx context.Context, userID, id uint64) (*model.Ticket, error) {
	return m.cancelTickFn(ctx, userID, id)
}
func (m *mockBooking) MarkTicketUsed(ctx context.Context, id uint64) (*model.Ticket, error) {
	return m.markUsedFn(ctx, id)
}
func (m *mockBooking) Reservation(ctx context.Context, userID, id uint64) (*model.Reservation, error) {
	return nil, model.ErrNotFound
}
func (m *mockBooking) ReservationByCode(ctx context.Context, userID uint64, code string) (*model.Reservation, error) {
	return m.byCodeFn(ctx, userID, code)
}
func (m *mockBooking) UserReservations(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return nil, nil
}
func (m *mockBooking) UserTickets(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	return nil, nil
}

// --- Mock CatalogService ---

type mockCatalog struct {
	createRoomFn func(ctx context.Context, in catalog.RoomInput) (*model.Room, error)
	showtimesFn  func(ctx context.Context, movieID uint64) ([]model.Showtime, error)
	showtimeFn   func(ctx context.Context, id uint64) (*model.Showtime, error)
	retireFn     func(ctx context.Context, id uint64) error
}

func (m *mockCatalog) CreateRoom(ctx context.Context, in catalog.RoomInput) (*model.Room, error) {
	return m.createRoomFn(ctx, in)
}
func (m *mockCatalog) SetRoomActive(ctx context.Context, id uint64, active bool) (*model.Room, error) {
	return &model.Room{ID: id, IsActive: active}, nil
}
func (m *mockCatalog) Rooms(ctx context.Context) ([]model.Room, error) { return nil, nil }
func (m *mockCatalog) Room(ctx context.Context, id uint64) (*model.Room, error) {
	return nil, model.ErrNotFound
}
func (m *mockCatalog) CreateMovie(ctx context.Context, in catalog.MovieInput) (*model.Movie, error) {
	return &model.Movie{ID: 1, Title: in.Title}, nil
}
func (m *mockCatalog) Movies(ctx context.Context) ([]model.Movie, error) { return nil, nil }
func (m *mockCatalog) Movie(ctx context.Context, id uint64) (*model.Movie, error) {
	return nil, model.ErrNotFound
}
func (m *mockCatalog) ScheduleShowtime(ctx context.Context, in catalog.ShowtimeInput) (*model.Showtime, error) {
	return nil, model.ErrInvalidState
}
func (m *mockCatalog) RetireShowtime(ctx context.Context, id uint64) error {
	return m.retireFn(ctx, id)
}
func (m *mockCatalog) Showtimes(ctx context.Context, movieID uint64) ([]model.Showtime, error) {
	return m.showtimesFn(ctx, movieID)
}
func (m *mockCatalog) Showtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	return m.showtimeFn(ctx, id)
}

// --- Mock ReportService ---

type mockReports struct {
	salesFn func(ctx context.Context, from, to string, by report.GroupBy) (*report.Sales, error)
}

func (m *mockReports) Sales(ctx context.Context, from, to string, by report.GroupBy) (*report.Sales, error) {
	return m.salesFn(ctx, from, to, by)
}

type purgeCounter struct{ n int }

func (p *purgeCounter) Purge(context.Context) { p.n++ }

// --- Mock ConcessionService ---

type mockConcessions struct {
	menuFn   func(ctx context.Context, kind model.MenuKind) ([]model.MenuItem, error)
	placeFn  func(ctx context.Context, userID uint64, lines []concessions.LineInput, method model.PaymentMethod) (*model.FoodOrder, error)
	cancelFn func(ctx context.Context, userID, id uint64) (*model.FoodOrder, error)
	updateFn func(ctx context.Context, id uint64, stock *int, active *bool) (*model.MenuItem, error)
}

func (m *mockConcessions) AddItem(ctx context.Context, in concessions.ItemInput) (*model.MenuItem, error) {
	return &model.MenuItem{ID: 1, Name: in.Name, Kind: in.Kind, Price: in.Price, Stock: in.Stock, IsActive: true}, nil
}
func (m *mockConcessions) UpdateItem(ctx context.Context, id uint64, stock *int, active *bool) (*model.MenuItem, error) {
	return m.updateFn(ctx, id, stock, active)
}
func (m *mockConcessions) Menu(ctx context.Context, kind model.MenuKind) ([]model.MenuItem, error) {
	return m.menuFn(ctx, kind)
}
func (m *mockConcessions) PlaceOrder(ctx context.Context, userID uint64, lines []concessions.LineInput, method model.PaymentMethod) (*model.FoodOrder, error) {
	return m.placeFn(ctx, userID, lines, method)
}
func (m *mockConcessions) CancelOrder(ctx context.Context, userID, id uint64) (*model.FoodOrder, error) {
	return m.cancelFn(ctx, userID, id)
}
func (m *mockConcessions) Order(ctx context.Context, userID, id uint64) (*model.FoodOrder, error) {
	return nil, model.ErrNotFound
}
func (m *mockConcessions) UserOrders(ctx context.Context, userID uint64) ([]model.FoodOrder, error) {
	return nil, nil
}
