package v1

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/ideanote/ai/aierr"
	"github.com/hrygo/ideanote/ai/metrics"
)

// UserIDHeader carries the authenticated user, set by the auth proxy in front
// of the service.
const UserIDHeader = "X-User-ID"

const userIDContextKey = "user_id"

func userMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Request().Header.Get(UserIDHeader), 10, 32)
		if err != nil || id <= 0 {
			return writeError(c, aierr.New(codeUnauthenticated, "authentication required"))
		}
		c.Set(userIDContextKey, int32(id))
		return next(c)
	}
}

func userIDFrom(c echo.Context) int32 {
	id, _ := c.Get(userIDContextKey).(int32)
	return id
}

func metricsMiddleware(exporter *metrics.PrometheusExporter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			exporter.RecordHTTPRequest(c.Request().Method, route, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
