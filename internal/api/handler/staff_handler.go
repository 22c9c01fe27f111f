package handler

import (
	"net/http"

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
	"github.com/tablewise/restaurant-backoffice/internal/pkg/apperror"
)

type StaffHandler struct {
	staff ports.StaffService
}

func NewStaffHandler(staff ports.StaffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// StaffRequest is used for create and update. Password is required on create
// and optional on update.
type StaffRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=255"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=editor admin"`
	Active   *bool  `json:"active,omitempty"`
}

func (r *StaffRequest) input() ports.StaffInput {
	return ports.StaffInput{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		Role:     r.Role,
		Active:   activeOrDefault(r.Active),
	}
}

// List returns every staff member.
//
// @Summary      List staff
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.StaffMember
// @Router       /api/staff [get]
func (h *StaffHandler) List(c *apihandler.Context) error {
	members, err := h.staff.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, members)
}

// Get returns one staff member.
//
// @Summary      Get staff member
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Staff ID"
// @Success      200  {object}  domain.StaffMember
// @Failure      404  {object}  apihandler.ErrorBody
// @Router       /api/staff/{id} [get]
func (h *StaffHandler) Get(c *apihandler.Context) error {
	id, err := stringParam(c, "id")
	if err != nil {
		return err
	}
	member, err := h.staff.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, member)
}

// Create adds a staff member.
//
// @Summary      Create staff member
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      StaffRequest  true  "Staff member"
// @Success      201   {object}  domain.StaffMember
// @Failure      409   {object}  apihandler.ErrorBody
// @Failure      422   {object}  apihandler.ErrorBody
// @Router       /api/staff [post]
func (h *StaffHandler) Create(c *apihandler.Context) error {
	req := apihandler.BodyAs[StaffRequest](c)
	if req.Password == "" {
		return apperror.Validation(map[string][]string{"password": {"Required"}})
	}
	member, err := h.staff.Create(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, member)
}

// Update replaces a staff member. An empty password keeps the current one.
//
// @Summary      Update staff member
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Staff ID"
// @Param        body  body      StaffRequest  true  "Staff member"
// @Success      200   {object}  domain.StaffMember
// @Failure      404   {object}  apihandler.ErrorBody
// @Router       /api/staff/{id} [put]
func (h *StaffHandler) Update(c *apihandler.Context) error {
	id, err := stringParam(c, "id")
	if err != nil {
		return err
	}
	member, err := h.staff.Update(c.Request().Context(), id, apihandler.BodyAs[StaffRequest](c).input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, member)
}

// Delete removes a staff member.
//
// @Summary      Delete staff member
// @Tags         staff
// @Security     BearerAuth
// @Param        id  path  string  true  "Staff ID"
// @Success      204
// @Failure      404  {object}  apihandler.ErrorBody
// @Router       /api/staff/{id} [delete]
func (h *StaffHandler) Delete(c *apihandler.Context) error {
	id, err := stringParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.staff.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
