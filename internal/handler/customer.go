package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/booking"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

// CustomerHandler exposes the booking flows of the authenticated user.
type CustomerHandler struct {
	Booking BookingService
	Log     logrus.FieldLogger
}

func NewCustomerHandler(b BookingService, log logrus.FieldLogger) *CustomerHandler {
	return &CustomerHandler{Booking: b, Log: log}
}

type bookingReq struct {
	MovieID    uint64   `json:"movie_id"`
	RoomID     uint64   `json:"room_id"`
	ShowtimeID uint64   `json:"showtime_id"`
	SeatType   string   `json:"seat_type"`
	Seats      []string `json:"seats"`
	Method     string   `json:"payment_method"`
}

type convertReq struct {
	Method string `json:"payment_method"`
}

// request binds the body into a booking.Request for the current user.
// Field validation is left to the booking service.
func (h *CustomerHandler) request(c echo.Context) (booking.Request, error) {
	uid, err := currentUser(c)
	if err != nil {
		return booking.Request{}, err
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return booking.Request{}, model.ErrInvalidInput
	}
	method, err := model.ParsePaymentMethod(req.Method)
	if err != nil {
		return booking.Request{}, err
	}
	return booking.Request{
		UserID:     uid,
		MovieID:    req.MovieID,
		RoomID:     req.RoomID,
		ShowtimeID: req.ShowtimeID,
		Class:      model.SeatClass(req.SeatType),
		Seats:      req.Seats,
		Method:     method,
	}, nil
}

// Purchase buys tickets for the requested seats, one per seat.
func (h *CustomerHandler) Purchase(c echo.Context) error {
	r, err := h.request(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	tickets, err := h.Booking.Purchase(c.Request().Context(), r)
	if err != nil {
		return fail(c, h.Log, err)
	}
	total := 0
	for _, t := range tickets {
		total += t.Price
	}
	return c.JSON(http.StatusCreated, echo.Map{"tickets": tickets, "total": total})
}

// Reserve holds the requested seats under a reservation code.
func (h *CustomerHandler) Reserve(c echo.Context) error {
	r, err := h.request(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	res, err := h.Booking.Reserve(c.Request().Context(), r)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *CustomerHandler) Convert(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	// the body is optional; an empty one keeps the default method
	var req convertReq
	if err := c.Bind(&req); err != nil {
		return fail(c, h.Log, fmt.Errorf("%w: malformed body", model.ErrInvalidInput))
	}
	method, err := model.ParsePaymentMethod(req.Method)
	if err != nil {
		return fail(c, h.Log, err)
	}
	tk, err := h.Booking.ConvertReservation(c.Request().Context(), uid, id, method)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, tk)
}

func (h *CustomerHandler) CancelReservation(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	res, err := h.Booking.CancelReservation(c.Request().Context(), uid, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CustomerHandler) CancelTicket(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	tk, err := h.Booking.CancelTicket(c.Request().Context(), uid, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, tk)
}

func (h *CustomerHandler) GetReservation(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	res, err := h.Booking.Reservation(c.Request().Context(), uid, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ReservationByCode looks a reservation up by its code, case-insensitively.
func (h *CustomerHandler) ReservationByCode(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	res, err := h.Booking.ReservationByCode(c.Request().Context(), uid, c.Param("code"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CustomerHandler) MyReservations(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	list, err := h.Booking.UserReservations(c.Request().Context(), uid)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *CustomerHandler) MyTickets(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	list, err := h.Booking.UserTickets(c.Request().Context(), uid)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}
