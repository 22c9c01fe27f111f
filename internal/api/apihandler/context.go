package apihandler

import (
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

// Context is what a business handler receives once every pipeline step has
// passed.
type Context struct {
	echo.Context

	// Params holds the route parameters by name.
	Params map[string]string
	Query  url.Values
	// Body is the validated request body as a pointer to the schema type, or
	// nil when the route has no schema or the method carries no body.
	Body any
	// User and Session are set when the route requested authentication and a
	// session was resolved.
	User    *domain.SessionUser
	Session *domain.Session
}

// HandlerFunc is a business handler.
type HandlerFunc func(c *Context) error

// BodyAs returns the validated body as *T, or nil.
func BodyAs[T any](c *Context) *T {
	b, _ := c.Body.(*T)
	return b
}

func routeParams(c echo.Context) map[string]string {
	names := c.ParamNames()
	values := c.ParamValues()
	params := make(map[string]string, len(names))
	for i, name := range names {
		if i < len(values) {
			params[name] = values[i]
		}
	}
	return params
}
