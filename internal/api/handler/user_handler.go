package handler

import (
	"net/http"

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

// UserHandler serves the account holder's own profile and the admin user list.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=50"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user editor admin"`
}

// Me returns the signed-in account.
//
// @Summary      Current account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  apihandler.ErrorBody
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c *apihandler.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe changes profile fields of the signed-in account.
//
// @Summary      Update current account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      UpdateProfileRequest  true  "Profile fields"
// @Success      200   {object}  domain.User
// @Failure      422   {object}  apihandler.ErrorBody
// @Router       /api/users/me [patch]
func (h *UserHandler) UpdateMe(c *apihandler.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	req := apihandler.BodyAs[UpdateProfileRequest](c)

	user, err := h.users.UpdateProfile(c.Request().Context(), id, domain.ProfileUpdate{
		Name:     req.Name,
		Username: req.Username,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// List returns every account.
//
// @Summary      List accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  apihandler.ErrorBody
// @Router       /api/users [get]
func (h *UserHandler) List(c *apihandler.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get returns one account by id.
//
// @Summary      Get account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  apihandler.ErrorBody
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c *apihandler.Context) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateRole changes the role of an account.
//
// @Summary      Change account role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User ID"
// @Param        body  body      UpdateRoleRequest  true  "New role"
// @Success      200   {object}  domain.User
// @Failure      404   {object}  apihandler.ErrorBody
// @Failure      422   {object}  apihandler.ErrorBody
// @Router       /api/users/{id}/role [patch]
func (h *UserHandler) UpdateRole(c *apihandler.Context) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	req := apihandler.BodyAs[UpdateRoleRequest](c)

	user, err := h.users.UpdateRole(c.Request().Context(), id, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
