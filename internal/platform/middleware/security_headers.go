package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets response headers suitable for a JSON API serving
// patient data.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' https://unpkg.com; connect-src 'self'; img-src 'self' data:; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")

			// Responses contain patient names.
			h.Set("Cache-Control", "no-store")

			return next(c)
		}
	}
}
