package handler

import (
	"strconv"

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/pkg/apperror"
)

// accountID returns the numeric id of the signed-in account holder. Staff
// sessions have no account and are rejected with 403.
func accountID(c *apihandler.Context) (uint, error) {
	if c.User == nil {
		return 0, apperror.Unauthorized("")
	}
	if c.User.Kind == domain.PrincipalStaff {
		return 0, apperror.Forbidden("Staff sessions have no account")
	}
	id, err := strconv.ParseUint(c.User.ID, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Unauthorized("Session token missing account identity")
	}
	return uint(id), nil
}

// uintParam parses a numeric route parameter.
func uintParam(c *apihandler.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params[name], 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.BadRequest("Invalid " + name)
	}
	return uint(id), nil
}

func stringParam(c *apihandler.Context, name string) (string, error) {
	v := c.Params[name]
	if v == "" {
		return "", apperror.BadRequest("Missing " + name)
	}
	return v, nil
}
