package handler

import (
	"encoding/json"
	"net/http"

	"gorm.io/datatypes"

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

type PageHandler struct {
	pages ports.PageService
}

func NewPageHandler(pages ports.PageService) *PageHandler {
	return &PageHandler{pages: pages}
}

type PageRequest struct {
	Slug            string          `json:"slug" validate:"required,slug,max=255"`
	Title           string          `json:"title" validate:"required,max=255"`
	Content         json.RawMessage `json:"content,omitempty" swaggertype:"object"`
	BuilderContent  *string         `json:"builder_content,omitempty"`
	ShowInMenu      bool            `json:"show_in_menu"`
	ShowInFooter    bool            `json:"show_in_footer"`
	MenuOrder       int             `json:"menu_order" validate:"gte=0"`
	ParentID        *uint           `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	MetaTitle       *string         `json:"meta_title,omitempty" validate:"omitempty,max=255"`
	MetaDescription *string         `json:"meta_description,omitempty"`
	MetaKeywords    *string         `json:"meta_keywords,omitempty" validate:"omitempty,max=500"`
}

func (r *PageRequest) page(id uint) *domain.Page {
	p := &domain.Page{
		ID:              id,
		Slug:            r.Slug,
		Title:           r.Title,
		BuilderContent:  r.BuilderContent,
		ShowInMenu:      r.ShowInMenu,
		ShowInFooter:    r.ShowInFooter,
		MenuOrder:       r.MenuOrder,
		ParentID:        r.ParentID,
		MetaTitle:       r.MetaTitle,
		MetaDescription: r.MetaDescription,
		MetaKeywords:    r.MetaKeywords,
	}
	if len(r.Content) > 0 && string(r.Content) != "null" {
		p.Content = datatypes.JSON(r.Content)
	}
	return p
}

// GetBySlug returns a published page.
//
// @Summary      Get page by slug
// @Tags         pages
// @Produce      json
// @Param        slug  path      string  true  "Page slug"
// @Success      200   {object}  domain.Page
// @Failure      404   {object}  apihandler.ErrorBody
// @Router       /api/pages/slug/{slug} [get]
func (h *PageHandler) GetBySlug(c *apihandler.Context) error {
	slug, err := stringParam(c, "slug")
	if err != nil {
		return err
	}
	page, err := h.pages.GetBySlug(c.Request().Context(), slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Menu returns the page tree for the menu or the footer.
//
// @Summary      Site navigation tree
// @Tags         pages
// @Produce      json
// @Param        placement  query     string  false  "menu or footer"  default(menu)
// @Success      200        {array}   domain.MenuItem
// @Failure      400        {object}  apihandler.ErrorBody
// @Router       /api/pages/menu [get]
func (h *PageHandler) Menu(c *apihandler.Context) error {
	placement := c.Query.Get("placement")
	if placement == "" {
		placement = domain.PlacementMenu
	}
	items, err := h.pages.Menu(c.Request().Context(), placement)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*domain.MenuItem{}
	}
	return c.JSON(http.StatusOK, items)
}

// List returns every page.
//
// @Summary      List pages
// @Tags         pages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Page
// @Router       /api/pages [get]
func (h *PageHandler) List(c *apihandler.Context) error {
	pages, err := h.pages.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pages)
}

// Get returns one page by id.
//
// @Summary      Get page
// @Tags         pages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Page ID"
// @Success      200  {object}  domain.Page
// @Failure      404  {object}  apihandler.ErrorBody
// @Router       /api/pages/{id} [get]
func (h *PageHandler) Get(c *apihandler.Context) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	page, err := h.pages.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Create adds a page.
//
// @Summary      Create page
// @Tags         pages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      PageRequest  true  "Page"
// @Success      201   {object}  domain.Page
// @Failure      409   {object}  apihandler.ErrorBody
// @Failure      422   {object}  apihandler.ErrorBody
// @Router       /api/pages [post]
func (h *PageHandler) Create(c *apihandler.Context) error {
	page := apihandler.BodyAs[PageRequest](c).page(0)
	if err := h.pages.Create(c.Request().Context(), page); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, page)
}

// Update replaces a page.
//
// @Summary      Update page
// @Tags         pages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int          true  "Page ID"
// @Param        body  body      PageRequest  true  "Page"
// @Success      200   {object}  domain.Page
// @Failure      404   {object}  apihandler.ErrorBody
// @Failure      422   {object}  apihandler.ErrorBody
// @Router       /api/pages/{id} [put]
func (h *PageHandler) Update(c *apihandler.Context) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	page := apihandler.BodyAs[PageRequest](c).page(id)
	if err := h.pages.Update(c.Request().Context(), page); err != nil {
		return err
	}
	updated, err := h.pages.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes a page. Children are detached.
//
// @Summary      Delete page
// @Tags         pages
// @Security     BearerAuth
// @Param        id  path  int  true  "Page ID"
// @Success      204
// @Failure      404  {object}  apihandler.ErrorBody
// @Router       /api/pages/{id} [delete]
func (h *PageHandler) Delete(c *apihandler.Context) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.pages.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
