package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/chartform/chartform/internal/platform/auth"
)

// Recovery returns middleware that converts a handler panic into a 500
// response instead of dropping the connection. The panic is logged with the
// caller's scope and the session in the path, so a crashing mutation can be
// traced back to the editing session that triggered it.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				var stack [4096]byte
				n := runtime.Stack(stack[:], false)

				rid, _ := c.Get("request_id").(string)
				org, _ := auth.OrgFromContext(c.Request().Context())

				logger.Error().
					Str("request_id", rid).
					Str("org_id", org).
					Str("session_id", extractSessionID(c.Request().URL.Path)).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(stack[:n])).
					Msg("panic recovered")

				err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}()
			return next(c)
		}
	}
}
