package handler

import (
	"context"

	"github.com/iliyamo/cinema-ops-manager/internal/booking"
	"github.com/iliyamo/cinema-ops-manager/internal/catalog"
	"github.com/iliyamo/cinema-ops-manager/internal/concessions"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/report"
)

// BookingService is the part of booking.Service the handlers call.
type BookingService interface {
	Purchase(ctx context.Context, r booking.Request) ([]model.Ticket, error)
	Reserve(ctx context.Context, r booking.Request) (*model.Reservation, error)
	ConvertReservation(ctx context.Context, userID, id uint64, method model.PaymentMethod) (*model.Ticket, error)
	CancelReservation(ctx context.Context, userID, id uint64) (*model.Reservation, error)
	CancelTicket(ctx context.Context, userID, id uint64) (*model.Ticket, error)
	MarkTicketUsed(ctx context.Context, id uint64) (*model.Ticket, error)
	Reservation(ctx context.Context, userID, id uint64) (*model.Reservation, error)
	ReservationByCode(ctx context.Context, userID uint64, code string) (*model.Reservation, error)
	UserReservations(ctx context.Context, userID uint64) ([]model.Reservation, error)
	UserTickets(ctx context.Context, userID uint64) ([]model.Ticket, error)
}

// CatalogService is the part of catalog.Service the handlers call.
type CatalogService interface {
	CreateRoom(ctx context.Context, in catalog.RoomInput) (*model.Room, error)
	SetRoomActive(ctx context.Context, id uint64, active bool) (*model.Room, error)
	Rooms(ctx context.Context) ([]model.Room, error)
	Room(ctx context.Context, id uint64) (*model.Room, error)
	CreateMovie(ctx context.Context, in catalog.MovieInput) (*model.Movie, error)
	Movies(ctx context.Context) ([]model.Movie, error)
	Movie(ctx context.Context, id uint64) (*model.Movie, error)
	ScheduleShowtime(ctx context.Context, in catalog.ShowtimeInput) (*model.Showtime, error)
	RetireShowtime(ctx context.Context, id uint64) error
	Showtimes(ctx context.Context, movieID uint64) ([]model.Showtime, error)
	Showtime(ctx context.Context, id uint64) (*model.Showtime, error)
}

// ReportService produces sales reports.
type ReportService interface {
	Sales(ctx context.Context, from, to string, by report.GroupBy) (*report.Sales, error)
}

// ConcessionService sells the food menu.
type ConcessionService interface {
	AddItem(ctx context.Context, in concessions.ItemInput) (*model.MenuItem, error)
	UpdateItem(ctx context.Context, id uint64, stock *int, active *bool) (*model.MenuItem, error)
	Menu(ctx context.Context, kind model.MenuKind) ([]model.MenuItem, error)
	PlaceOrder(ctx context.Context, userID uint64, lines []concessions.LineInput, method model.PaymentMethod) (*model.FoodOrder, error)
	CancelOrder(ctx context.Context, userID, id uint64) (*model.FoodOrder, error)
	Order(ctx context.Context, userID, id uint64) (*model.FoodOrder, error)
	UserOrders(ctx context.Context, userID uint64) ([]model.FoodOrder, error)
}

// CachePurger drops cached catalog responses after a catalog write.
type CachePurger interface {
	Purge(ctx context.Context)
}

var (
	_ BookingService    = (*booking.Service)(nil)
	_ CatalogService    = (*catalog.Service)(nil)
	_ ReportService     = (*report.Service)(nil)
	_ ConcessionService = (*concessions.Service)(nil)
)
