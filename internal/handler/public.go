package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

// PublicHandler serves the unauthenticated catalog.
type PublicHandler struct {
	Catalog CatalogService
	Log     logrus.FieldLogger
}

func NewPublicHandler(cat CatalogService, log logrus.FieldLogger) *PublicHandler {
	return &PublicHandler{Catalog: cat, Log: log}
}

func (h *PublicHandler) ListMovies(c echo.Context) error {
	movies, err := h.Catalog.Movies(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

func (h *PublicHandler) GetMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	m, err := h.Catalog.Movie(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// showtimeView is a showtime without its seat list.
type showtimeView struct {
	ID        uint64                  `json:"id"`
	MovieID   uint64                  `json:"movie_id"`
	RoomID    uint64                  `json:"room_id"`
	Date      string                  `json:"date"`
	StartTime string                  `json:"start_time"`
	EndTime   string                  `json:"end_time"`
	Session   model.Session           `json:"session"`
	Available map[model.SeatClass]int `json:"available_seats"`
}

func toShowtimeView(st model.Showtime) showtimeView {
	return showtimeView{
		ID: st.ID, MovieID: st.MovieID, RoomID: st.RoomID,
		Date: st.Date, StartTime: st.StartTime, EndTime: st.EndTime,
		Session: st.Session, Available: st.Available,
	}
}

// ListShowtimes lists showtimes, optionally filtered by ?movie_id= and
// ?date=YYYY-MM-DD.
func (h *PublicHandler) ListShowtimes(c echo.Context) error {
	movieID, err := queryID(c, "movie_id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	date := c.QueryParam("date")
	list, err := h.Catalog.Showtimes(c.Request().Context(), movieID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	items := make([]showtimeView, 0, len(list))
	for _, st := range list {
		if date != "" && st.Date != date {
			continue
		}
		items = append(items, toShowtimeView(st))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// seatView hides the owning ticket and reservation of a seat.
type seatView struct {
	ID     string          `json:"id"`
	Class  model.SeatClass `json:"seat_type"`
	Status string          `json:"status"`
}

// SeatMap returns every seat of a showtime with its status; a seat held by
// an in-flight booking is reported as "held".
func (h *PublicHandler) SeatMap(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	st, err := h.Catalog.Showtime(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	seats := make([]seatView, len(st.Seats))
	for i, s := range st.Seats {
		status := string(s.Status)
		if s.Held() {
			status = "held"
		}
		seats[i] = seatView{ID: s.ID, Class: s.Class, Status: status}
	}
	return c.JSON(http.StatusOK, echo.Map{"showtime": toShowtimeView(*st), "seats": seats})
}

// RoomAvailability reports a room's capacity and free counters per class.
func (h *PublicHandler) RoomAvailability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	room, err := h.Catalog.Room(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":              room.ID,
		"name":            room.Name,
		"format":          room.Format,
		"is_active":       room.IsActive,
		"capacity":        room.Capacity,
		"available_seats": room.Available,
	})
}
