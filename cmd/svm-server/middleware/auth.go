package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// BearerAuth rejects requests whose Authorization header does not carry
// the shared API token. Both sides are hashed and compared in constant
// time. Runs before any body parsing.
func BearerAuth(token string) echo.MiddlewareFunc {
	want := sha256.Sum256([]byte(token))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scheme, value, _ := strings.Cut(c.Request().Header.Get("Authorization"), " ")
			if scheme != "Bearer" {
				return echo.NewHTTPError(http.StatusBadRequest, "Authorization must be Bearer.")
			}

			got := sha256.Sum256([]byte(value))
			if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token.")
			}

			return next(c)
		}
	}
}
