package middleware

import (
	"time"

	xlogger "ADRFeed/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests.
func RequestLogging(l *xlogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let the error handler commit the status before it is logged.
				c.Error(err)
			}

			l.Info("http request",
				xlogger.String("method", req.Method),
				xlogger.String("uri", req.RequestURI),
				xlogger.String("remote", c.RealIP()),
				xlogger.Int("status", res.Status),
				xlogger.Duration("latency_ms", time.Since(start)),
			)

			return nil
		}
	}
}
