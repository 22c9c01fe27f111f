package middleware

import (
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
	"github.com/tablewise/restaurant-backoffice/internal/pkg/apperror"
)

// RequireRole guards plain echo handlers, such as the metrics endpoint, that
// do not go through the handler factory.
func RequireRole(sessions apihandler.SessionProvider, responder *apihandler.Responder, allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, err := sessions.Session(c)
			if err != nil || session == nil {
				return responder.Respond(c, apperror.Unauthorized(""))
			}
			if !slices.Contains(allowedRoles, session.User.EffectiveRole()) {
				return responder.Respond(c, apperror.Forbidden("Insufficient permissions"))
			}
			return next(c)
		}
	}
}
