package apihandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/pkg/apperror"
)

// ErrorBody is the envelope of every error response produced by the API.
type ErrorBody struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// methodNotAllowedBody is the fixed 405 shape.
type methodNotAllowedBody struct {
	Error string `json:"error"`
}

// Responder turns any error into the error envelope. It is shared by the
// handler factory and echo's HTTPErrorHandler so an error is rendered once.
type Responder struct {
	log        zerolog.Logger
	production bool
}

func NewResponder(log zerolog.Logger, production bool) *Responder {
	return &Responder{log: log.With().Str("component", "responder").Logger(), production: production}
}

// Respond writes the error response for err. It returns nil once the
// response is written.
func (r *Responder) Respond(c echo.Context, err error) error {
	if c.Response().Committed {
		r.log.Debug().Err(err).Str("path", c.Path()).Msg("error after response was committed")
		return nil
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusMethodNotAllowed {
		return MethodNotAllowed(c)
	}

	ae := r.Resolve(err)
	r.logError(c, ae)

	body := ErrorBody{
		Success: false,
		Message: ae.Message,
		Code:    ae.Code(),
		Errors:  ae.Fields,
	}
	if r.production && !ae.Operational() {
		body.Message = "Internal server error"
	}
	return c.JSON(ae.Status(), body)
}

// HTTPErrorHandler adapts Respond to echo.HTTPErrorHandler for errors raised
// outside the handler factory, such as router 404s.
func (r *Responder) HTTPErrorHandler(err error, c echo.Context) {
	_ = r.Respond(c, err)
}

// MethodNotAllowed writes the 405 response for the request method.
func MethodNotAllowed(c echo.Context) error {
	return c.JSON(http.StatusMethodNotAllowed, methodNotAllowedBody{
		Error: fmt.Sprintf("Method %s Not Allowed", c.Request().Method),
	})
}

// Resolve maps err to a categorised error. Errors that are already
// categorised pass through unchanged.
func (r *Responder) Resolve(err error) *apperror.Error {
	if ae, ok := apperror.As(err); ok {
		return ae
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fromHTTPError(he)
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return apperror.NotFound("Resource")
	case errors.Is(err, domain.ErrConflict):
		return apperror.Conflict("Resource already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return apperror.Unauthorized("Invalid credentials")
	case errors.Is(err, domain.ErrAccountDisabled):
		return apperror.Forbidden("Account disabled")
	case errors.Is(err, domain.ErrForbidden):
		return apperror.Forbidden("Insufficient permissions")
	case errors.Is(err, domain.ErrInvalidResetToken):
		return apperror.BadRequest("Invalid or expired reset token")
	case errors.Is(err, domain.ErrParentCycle):
		return apperror.Validation(map[string][]string{"parent_id": {"Page cannot be nested under itself or its descendants"}})
	case errors.Is(err, domain.ErrParentNotFound):
		return apperror.Validation(map[string][]string{"parent_id": {"Parent page does not exist"}})
	case errors.Is(err, domain.ErrInvalidRole):
		return apperror.Validation(map[string][]string{"role": {"Invalid role"}})
	case errors.Is(err, domain.ErrUnknownPlan):
		return apperror.Validation(map[string][]string{"plan": {"Unknown plan"}})
	case errors.Is(err, domain.ErrInvalidPlacement):
		return apperror.BadRequest("Placement must be menu or footer")
	case errors.Is(err, domain.ErrNoBillingAccount):
		return apperror.BadRequest("No billing account exists yet")
	case errors.Is(err, domain.ErrInvalidSignature):
		return apperror.BadRequest("Invalid webhook signature")
	case errors.Is(err, domain.ErrPaymentProvider):
		return apperror.ExternalService("Payment provider", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.ExternalService("Upstream dependency", err)
	}

	var pgErr *pgconn.PgError
	var connErr *pgconn.ConnectError
	if errors.As(err, &pgErr) || errors.As(err, &connErr) {
		return apperror.Database(err)
	}

	return apperror.Internal(err)
}

func fromHTTPError(he *echo.HTTPError) *apperror.Error {
	msg := fmt.Sprint(he.Message)
	switch he.Code {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return apperror.Wrap(apperror.KindBadRequest, msg, he)
	case http.StatusUnauthorized:
		return apperror.Unauthorized(msg)
	case http.StatusForbidden:
		return apperror.Forbidden(msg)
	case http.StatusNotFound:
		return apperror.New(apperror.KindNotFound, "Route not found")
	case http.StatusServiceUnavailable:
		return apperror.Wrap(apperror.KindExternalService, msg, he)
	default:
		return apperror.Internal(he)
	}
}

func (r *Responder) logError(c echo.Context, ae *apperror.Error) {
	var ev *zerolog.Event
	switch ae.Kind {
	case apperror.KindInternal, apperror.KindDatabase, apperror.KindExternalService:
		ev = r.log.Error().Err(ae.Err)
	default:
		ev = r.log.Debug()
	}
	ev.Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("code", ae.Code()).
		Msg(ae.Message)
}
