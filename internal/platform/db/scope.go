package db

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"github.com/chartform/chartform/internal/platform/auth"
)

var orgIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ScopeMiddleware rejects requests whose resolved organization id is missing
// or malformed. Every row the repositories touch is filtered by this id, so
// a request without one must never reach a handler.
func ScopeMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			org, ok := auth.OrgFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "must be logged in with an organization account")
			}
			if !orgIDPattern.MatchString(org) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid organization identifier")
			}
			return next(c)
		}
	}
}
