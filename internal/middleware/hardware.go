package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HardwareAuth returns a middleware that gates sensor-facing endpoints
// behind a shared service-to-service secret carried in the
// X-Hardware-Token header.  Seat sensors cannot hold per-user
// credentials, but leaving the status endpoint open would let anyone
// rewrite seat state, so this is a distinct trust boundary from user
// auth.  Comparison is constant-time.
func HardwareAuth(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get("X-Hardware-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid hardware token"})
			}
			return next(c)
		}
	}
}
