// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/handler"
	"github.com/iliyamo/cinema-ops-manager/internal/middleware"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

// Handlers bundles everything the routes need.
type Handlers struct {
	Auth     *handler.AuthHandler
	Public   *handler.PublicHandler
	Customer *handler.CustomerHandler
	Admin    *handler.AdminHandler
	// Concessions is optional; nil leaves the menu routes out.
	Concessions *handler.ConcessionHandler

	JWTSecret string
	// Cache wraps the cacheable public GET routes; nil means no caching.
	Cache echo.MiddlewareFunc
	// RateLimit wraps every /v1 route; nil means unlimited.
	RateLimit echo.MiddlewareFunc
}

// New returns an Echo instance with all routes registered.
func New(h Handlers, log logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", handler.Metrics())

	v1 := e.Group("/v1", optional(h.RateLimit))
	registerAuth(v1, h)
	registerPublic(v1, h)
	registerCustomer(v1, h)
	registerAdmin(v1, h)
	if h.Concessions != nil {
		registerConcessions(v1, h)
	}
	return e
}

func optional(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return mw
}

func registerAuth(v1 *echo.Group, h Handlers) {
	g := v1.Group("/auth")
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	g.POST("/logout", h.Auth.Logout)

	v1.GET("/me", h.Auth.Me, middleware.JWTAuth(h.JWTSecret))
}

// registerPublic exposes the catalog.  Movie and showtime listings are
// cached; seat maps and availability are always read live.
func registerPublic(v1 *echo.Group, h Handlers) {
	cache := optional(h.Cache)
	v1.GET("/movies", h.Public.ListMovies, cache)
	v1.GET("/movies/:id", h.Public.GetMovie, cache)
	v1.GET("/showtimes", h.Public.ListShowtimes, cache)
	v1.GET("/showtimes/:id/seats", h.Public.SeatMap)
	v1.GET("/rooms/:id/availability", h.Public.RoomAvailability)
}

func registerCustomer(v1 *echo.Group, h Handlers) {
	g := v1.Group("", middleware.JWTAuth(h.JWTSecret), middleware.RequireRole(model.RoleClient, model.RoleAdmin))
	g.POST("/tickets", h.Customer.Purchase)
	g.GET("/tickets", h.Customer.MyTickets)
	g.POST("/tickets/:id/cancel", h.Customer.CancelTicket)

	g.POST("/reservations", h.Customer.Reserve)
	g.GET("/reservations", h.Customer.MyReservations)
	g.GET("/reservations/:id", h.Customer.GetReservation)
	g.GET("/reservations/code/:code", h.Customer.ReservationByCode)
	g.POST("/reservations/:id/convert", h.Customer.Convert)
	g.POST("/reservations/:id/cancel", h.Customer.CancelReservation)
}

func registerAdmin(v1 *echo.Group, h Handlers) {
	g := v1.Group("/admin", middleware.JWTAuth(h.JWTSecret), middleware.RequireRole(model.RoleAdmin))
	g.GET("/rooms", h.Admin.ListRooms)
	g.POST("/rooms", h.Admin.CreateRoom)
	g.PATCH("/rooms/:id", h.Admin.SetRoomState)
	g.POST("/movies", h.Admin.CreateMovie)
	g.POST("/showtimes", h.Admin.CreateShowtime)
	g.DELETE("/showtimes/:id", h.Admin.RetireShowtime)
	g.POST("/tickets/:id/use", h.Admin.MarkTicketUsed)
	g.GET("/reports/sales", h.Admin.SalesReport)
}

// registerConcessions exposes the food menu.  The menu is read live since
// every order changes stock.
func registerConcessions(v1 *echo.Group, h Handlers) {
	v1.GET("/menu", h.Concessions.Menu)

	g := v1.Group("/orders", middleware.JWTAuth(h.JWTSecret), middleware.RequireRole(model.RoleClient, model.RoleAdmin))
	g.POST("", h.Concessions.PlaceOrder)
	g.GET("", h.Concessions.MyOrders)
	g.GET("/:id", h.Concessions.GetOrder)
	g.POST("/:id/cancel", h.Concessions.CancelOrder)

	a := v1.Group("/admin/menu", middleware.JWTAuth(h.JWTSecret), middleware.RequireRole(model.RoleAdmin))
	a.POST("", h.Concessions.AddItem)
	a.PATCH("/:id", h.Concessions.UpdateItem)
}
