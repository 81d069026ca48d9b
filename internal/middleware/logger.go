package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"
)

// HeaderCorrelationID is echoed back on every response.
const HeaderCorrelationID = "Correlation-ID"

// RequestLogger tags each request with a correlation id (taken from the
// request header or generated) and logs one line per request.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			cid := req.Header.Get(HeaderCorrelationID)
			if cid == "" {
				cid = shortuuid.New()
			}
			c.Response().Header().Set(HeaderCorrelationID, cid)

			entry := log.WithField("correlation_id", cid)
			c.Set(ctxLogger, entry)

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"method":   req.Method,
				"path":     c.Path(),
				"status":   c.Response().Status,
				"duration": time.Since(start).String(),
			}
			if id, ok := UserID(c); ok {
				fields["user_id"] = id
			}
			e := entry.WithFields(fields)
			switch {
			case c.Response().Status >= 500:
				e.WithError(err).Error("request failed")
			case err != nil:
				e.WithError(err).Info("request rejected")
			default:
				e.Info("request handled")
			}
			return nil
		}
	}
}

// Logger returns the request-scoped logger, or fallback outside a request
// logged by RequestLogger.
func Logger(c echo.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if l, ok := c.Get(ctxLogger).(logrus.FieldLogger); ok {
		return l
	}
	return fallback
}
