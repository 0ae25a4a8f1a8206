package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireVerified returns a middleware that enforces that the
// authenticated user holds a verified pregnancy certificate.  The
// certificate flow (OCR extraction and review) lives in a separate
// service; its outcome reaches us as the boolean "verified" claim in
// the access token, which JWTAuth has already extracted into the
// context.  Unverified users may browse seat maps but may not reserve,
// so this wraps only the reservation endpoints.
func RequireVerified() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, ok := c.Get("verified").(bool)
			if !ok || !v {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "pregnancy certificate not verified"})
			}
			return next(c)
		}
	}
}
