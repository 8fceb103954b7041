package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/chartform/chartform/internal/platform/auth"
)

// Logger returns middleware that emits one structured line per request,
// stamped with the caller's organization scope and editing session so a log
// stream can be filtered down to a single editor's activity.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			// Read the request after the handler ran: the auth middleware
			// swaps in a context carrying the resolved identity.
			req := c.Request()

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			if org, ok := auth.OrgFromContext(req.Context()); ok {
				evt = evt.Str("org_id", org)
			}
			if uid := auth.UserIDFromContext(req.Context()); uid != "" {
				evt = evt.Str("user_id", uid)
			}
			if sid := extractSessionID(req.URL.Path); sid != "" {
				evt = evt.Str("session_id", sid)
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
