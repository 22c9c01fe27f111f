package api

import (
	"github.com/labstack/echo/v4"

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler for errors that never
// reached a factory handler (unknown routes, methods the router rejects,
// middleware failures). It renders the same envelope as the handlers:
// {"success": false, "message": "...", "code": "..."}.
func NewHTTPErrorHandler(responder *apihandler.Responder) echo.HTTPErrorHandler {
	return responder.HTTPErrorHandler
}
