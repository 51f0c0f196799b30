package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	xlogger "ADRFeed/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover returns recovery middleware.
func Recover(l *xlogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (ret error) {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					l.Error("http handler panic",
						xlogger.Error(err),
						xlogger.String("path", c.Request().URL.Path),
						xlogger.String("stack", string(debug.Stack())),
					)
					if c.Response().Committed {
						return
					}
					ret = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"status":  http.StatusInternalServerError,
						"message": "Internal Server Error",
					})
				}
			}()
			return next(c)
		}
	}
}
