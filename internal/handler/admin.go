package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/catalog"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/report"
)

// AdminHandler manages the catalog, ticket check-in and reports.
type AdminHandler struct {
	Catalog CatalogService
	Booking BookingService
	Reports ReportService
	Cache   CachePurger
	Log     logrus.FieldLogger
}

func NewAdminHandler(cat CatalogService, b BookingService, r ReportService, cache CachePurger, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{Catalog: cat, Booking: b, Reports: r, Cache: cache, Log: log}
}

type roomReq struct {
	Name         string `json:"name"`
	Format       string `json:"format"`
	Standard     int    `json:"standard_seats"`
	Preferential int    `json:"preferential_seats"`
}

type roomStateReq struct {
	Active *bool `json:"is_active"`
}

type movieReq struct {
	Title       string `json:"title"`
	Genre       string `json:"genre"`
	DurationMin int    `json:"duration_min"`
	Rating      string `json:"rating"`
	Format      string `json:"format"`
}

type showtimeReq struct {
	MovieID   uint64 `json:"movie_id"`
	RoomID    uint64 `json:"room_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h *AdminHandler) purge(c echo.Context) {
	if h.Cache != nil {
		h.Cache.Purge(c.Request().Context())
	}
}

func (h *AdminHandler) CreateRoom(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	room, err := h.Catalog.CreateRoom(c.Request().Context(), catalog.RoomInput{
		Name:         req.Name,
		Format:       model.RoomFormat(req.Format),
		Standard:     req.Standard,
		Preferential: req.Preferential,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, room)
}

func (h *AdminHandler) ListRooms(c echo.Context) error {
	rooms, err := h.Catalog.Rooms(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}

// SetRoomState activates or deactivates a room.  Inactive rooms accept no
// new showtimes.
func (h *AdminHandler) SetRoomState(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req roomStateReq
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return badRequest(c, "is_active required")
	}
	room, err := h.Catalog.SetRoomActive(c.Request().Context(), id, *req.Active)
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, room)
}

func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	m, err := h.Catalog.CreateMovie(c.Request().Context(), catalog.MovieInput{
		Title:       req.Title,
		Genre:       req.Genre,
		DurationMin: req.DurationMin,
		Rating:      req.Rating,
		Format:      model.RoomFormat(req.Format),
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, m)
}

func (h *AdminHandler) CreateShowtime(c echo.Context) error {
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	st, err := h.Catalog.ScheduleShowtime(c.Request().Context(), catalog.ShowtimeInput{
		MovieID:   req.MovieID,
		RoomID:    req.RoomID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, toShowtimeView(*st))
}

func (h *AdminHandler) RetireShowtime(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := h.Catalog.RetireShowtime(c.Request().Context(), id); err != nil {
		return fail(c, h.Log, err)
	}
	h.purge(c)
	return c.NoContent(http.StatusNoContent)
}

// MarkTicketUsed checks a ticket in at the door.
func (h *AdminHandler) MarkTicketUsed(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	tk, err := h.Booking.MarkTicketUsed(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, tk)
}

// SalesReport serves GET /admin/reports/sales?from=&to=&group_by=.
func (h *AdminHandler) SalesReport(c echo.Context) error {
	by, err := report.ParseGroupBy(c.QueryParam("group_by"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	from, to := c.QueryParam("from"), c.QueryParam("to")
	if from == "" || to == "" {
		return badRequest(c, "from and to are required (YYYY-MM-DD)")
	}
	sales, err := h.Reports.Sales(c.Request().Context(), from, to, by)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sales)
}
