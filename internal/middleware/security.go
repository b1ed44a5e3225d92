package middleware

import (
	"github.com/labstack/echo/v4"
)

// hopByHopHeaders are connection-scoped and never reach handlers.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// responseHeaders are set on every relay response.
var responseHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "DENY",
	"Referrer-Policy":        "no-referrer",
}

// SecurityHeaders returns an Echo middleware that strips hop-by-hop headers
// from requests and adds security headers to responses. Headers are set
// before the handler runs so they survive a handler that commits early.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, h := range hopByHopHeaders {
				c.Request().Header.Del(h)
			}

			header := c.Response().Header()
			for k, v := range responseHeaders {
				header.Set(k, v)
			}

			return next(c)
		}
	}
}
