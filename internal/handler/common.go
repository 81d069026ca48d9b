// Package handler implements the HTTP endpoints.  Handlers bind and
// validate the request, call one service operation and translate its
// error into a status code.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/middleware"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/repository"
)

var errUnauthenticated = errors.New("unauthenticated")

// statusOf maps the error taxonomy onto HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrPartialCommit):
		return http.StatusInternalServerError
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrSeatUnavailable),
		errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrAlreadyCancelled),
		errors.Is(err, repository.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, model.ErrExpired):
		return http.StatusGone
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": ...}.  Internal failures are logged and
// reported without detail.
func fail(c echo.Context, log logrus.FieldLogger, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		middleware.Logger(c, log).WithError(err).Error("request failed")
		msg := "internal error"
		if errors.Is(err, model.ErrPartialCommit) {
			msg = "booking could not be completed, seats were released"
		}
		return c.JSON(status, echo.Map{"error": msg})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// currentUser returns the id set by the JWT middleware.
func currentUser(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errUnauthenticated
	}
	return id, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", model.ErrInvalidInput, name)
	}
	return id, nil
}

// queryID parses an optional numeric query parameter; absent means 0.
func queryID(c echo.Context, name string) (uint64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", model.ErrInvalidInput, name)
	}
	return id, nil
}
