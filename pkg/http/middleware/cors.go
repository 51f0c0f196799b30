package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const noCache = "no-cache, no-store, must-revalidate"

// CORSConfig holds CORS configuration. A "*" entry in AllowOrigins allows
// every origin.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods string
	AllowHeaders string
}

// Allows reports whether origin is on the allow-list.
func (cfg CORSConfig) Allows(origin string) bool {
	for _, o := range cfg.AllowOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// CORS returns CORS middleware. A missing Origin is treated as "*".
// Rejected origins get status 403; non-preflight requests also get
// "Access-Control-Allow-Origin: null" and still carry the route body. Preflight requests never reach
// the route handler.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			h := res.Header()

			origin := req.Header.Get(echo.HeaderOrigin)
			if origin == "" {
				origin = "*"
			}

			status := http.StatusOK
			allowed := cfg.Allows(origin)
			switch {
			case allowed:
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			case req.Method != http.MethodOptions:
				h.Set(echo.HeaderAccessControlAllowOrigin, "null")
			}
			if !allowed {
				status = http.StatusForbidden
			}
			h.Set(echo.HeaderAccessControlAllowMethods, cfg.AllowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, cfg.AllowHeaders)

			if req.Method == http.MethodOptions {
				return c.NoContent(status)
			}

			if req.Method == http.MethodGet {
				h.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
				h.Set(echo.HeaderCacheControl, noCache)
			}

			if status != http.StatusOK {
				res.Before(func() {
					res.Status = status
				})
			}

			return next(c)
		}
	}
}
