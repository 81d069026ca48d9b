package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Metrics serves the Prometheus default registry.
func Metrics() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
