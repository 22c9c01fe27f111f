// Package apihandler builds echo handlers from a declarative description of
// the allowed methods, the authentication requirement and the body schema.
//
// Every request runs the same pipeline: method check, authentication, body
// validation, then the business handler. The first failing step writes the
// response and nothing after it runs.
package apihandler

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/pkg/apperror"
	"github.com/tablewise/restaurant-backoffice/internal/pkg/metrics"
)

// SessionProvider resolves the session attached to a request. It returns
// (nil, nil) when the request carries none.
type SessionProvider interface {
	Session(c echo.Context) (*domain.Session, error)
}

// AuthOptions describes the authentication requirement of a route. A
// non-empty Roles implies Required.
type AuthOptions struct {
	Required bool
	Roles    []string
}

// Options configures one route handler. When neither Method nor Methods is
// set the handler accepts GET only.
type Options struct {
	Method  string
	Methods []string
	Schema  Schema
	Auth    *AuthOptions
}

func (o Options) allowed() []string {
	methods := slices.Clone(o.Methods)
	if o.Method != "" {
		methods = append(methods, o.Method)
	}
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}
	for i, m := range methods {
		methods[i] = strings.ToUpper(m)
	}
	return methods
}

// Factory creates pipeline handlers sharing one session provider, validator
// and responder.
type Factory struct {
	sessions  SessionProvider
	responder *Responder
	validate  *validator.Validate
	log       zerolog.Logger
}

func NewFactory(sessions SessionProvider, responder *Responder, log zerolog.Logger) *Factory {
	return &Factory{
		sessions:  sessions,
		responder: responder,
		validate:  NewValidator(),
		log:       log.With().Str("component", "apihandler").Logger(),
	}
}

// Responder returns the responder used for pipeline errors.
func (f *Factory) Responder() *Responder { return f.responder }

// Create wraps h in the request pipeline described by opts.
func (f *Factory) Create(opts Options, h HandlerFunc) echo.HandlerFunc {
	methods := opts.allowed()

	return func(c echo.Context) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				f.log.Error().
					Interface("panic", rec).
					Str("method", c.Request().Method).
					Str("path", c.Path()).
					Msg("handler panicked")
				err = f.responder.Respond(c, apperror.Internal(fmt.Errorf("panic: %v", rec)))
			}
		}()

		method := c.Request().Method
		if !slices.Contains(methods, method) {
			metrics.HandlerRejectionsTotal.WithLabelValues("method").Inc()
			c.Response().Header().Set(echo.HeaderAllow, strings.Join(methods, ", "))
			return MethodNotAllowed(c)
		}

		ctx := &Context{
			Context: c,
			Params:  routeParams(c),
			Query:   c.QueryParams(),
		}

		if opts.Auth != nil {
			session, aerr := f.authenticate(c, opts.Auth)
			if aerr != nil {
				return f.responder.Respond(c, aerr)
			}
			if session != nil {
				ctx.Session = session
				user := session.User
				ctx.User = &user
			}
		}

		if opts.Schema != nil && hasBody(method) {
			body, verr := opts.Schema.Decode(c, f.validate)
			if verr != nil {
				metrics.HandlerRejectionsTotal.WithLabelValues("validation").Inc()
				return f.responder.Respond(c, verr)
			}
			ctx.Body = body
		}

		if herr := h(ctx); herr != nil {
			return f.responder.Respond(c, herr)
		}
		return nil
	}
}

// authenticate returns the session, or (nil, nil) for an anonymous request
// on a route where authentication is optional.
func (f *Factory) authenticate(c echo.Context, auth *AuthOptions) (*domain.Session, error) {
	required := auth.Required || len(auth.Roles) > 0

	session, err := f.sessions.Session(c)
	if err != nil {
		f.log.Warn().Err(err).Str("path", c.Path()).Msg("session lookup failed")
		if !required {
			return nil, nil
		}
		metrics.HandlerRejectionsTotal.WithLabelValues("unauthorized").Inc()
		return nil, apperror.Unauthorized("")
	}
	if session == nil {
		if !required {
			return nil, nil
		}
		metrics.HandlerRejectionsTotal.WithLabelValues("unauthorized").Inc()
		return nil, apperror.Unauthorized("")
	}

	if len(auth.Roles) > 0 && !slices.Contains(auth.Roles, session.User.EffectiveRole()) {
		metrics.HandlerRejectionsTotal.WithLabelValues("forbidden").Inc()
		return nil, apperror.Forbidden("Insufficient permissions")
	}
	return session, nil
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
