package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/concessions"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

// ConcessionHandler serves the food menu and food orders.
type ConcessionHandler struct {
	Concessions ConcessionService
	Log         logrus.FieldLogger
}

func NewConcessionHandler(s ConcessionService, log logrus.FieldLogger) *ConcessionHandler {
	return &ConcessionHandler{Concessions: s, Log: log}
}

type orderReq struct {
	Items []struct {
		ItemID   uint64 `json:"item_id"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
	Method string `json:"payment_method"`
}

type menuItemReq struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Price int    `json:"price"`
	Stock int    `json:"stock"`
}

type menuItemPatch struct {
	Stock  *int  `json:"stock"`
	Active *bool `json:"is_active"`
}

// Menu lists the active items; ?kind= narrows it to one kind.
func (h *ConcessionHandler) Menu(c echo.Context) error {
	items, err := h.Concessions.Menu(c.Request().Context(), model.MenuKind(c.QueryParam("kind")))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ConcessionHandler) PlaceOrder(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req orderReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	method, err := model.ParsePaymentMethod(req.Method)
	if err != nil {
		return fail(c, h.Log, err)
	}
	lines := make([]concessions.LineInput, len(req.Items))
	for i, it := range req.Items {
		lines[i] = concessions.LineInput{ItemID: it.ItemID, Quantity: it.Quantity}
	}
	o, err := h.Concessions.PlaceOrder(c.Request().Context(), uid, lines, method)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *ConcessionHandler) MyOrders(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	orders, err := h.Concessions.UserOrders(c.Request().Context(), uid)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *ConcessionHandler) GetOrder(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	o, err := h.Concessions.Order(c.Request().Context(), uid, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *ConcessionHandler) CancelOrder(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	o, err := h.Concessions.CancelOrder(c.Request().Context(), uid, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *ConcessionHandler) AddItem(c echo.Context) error {
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	it, err := h.Concessions.AddItem(c.Request().Context(), concessions.ItemInput{
		Name:  req.Name,
		Kind:  model.MenuKind(req.Kind),
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *ConcessionHandler) UpdateItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req menuItemPatch
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Stock == nil && req.Active == nil {
		return badRequest(c, "stock or is_active is required")
	}
	it, err := h.Concessions.UpdateItem(c.Request().Context(), id, req.Stock, req.Active)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, it)
}
