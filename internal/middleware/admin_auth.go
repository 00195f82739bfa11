package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

// AdminKeyAuth accepts "Authorization: Bearer <key>" matching the configured
// shared key.
func AdminKeyAuth(key string) echo.MiddlewareFunc {
	return echoMw.KeyAuth(func(got string, _ echo.Context) (bool, error) {
		return subtle.ConstantTimeCompare([]byte(got), []byte(key)) == 1, nil
	})
}
