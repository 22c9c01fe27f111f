package handler

import (
	"net/http"

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

// catalogRequest is a request body that builds a catalog entity.
type catalogRequest[T any] interface {
	entity(id string) *T
}

// CatalogHandler serves a publishable collection: active records publicly,
// every record to editors.
type CatalogHandler[T any, R catalogRequest[T]] struct {
	service ports.CatalogService[T]
}

func NewCatalogHandler[T any, R catalogRequest[T]](service ports.CatalogService[T]) *CatalogHandler[T, R] {
	return &CatalogHandler[T, R]{service: service}
}

// Schema returns the request schema for Create and Update.
func (h *CatalogHandler[T, R]) Schema() apihandler.Schema {
	return apihandler.JSON[R]()
}

func (h *CatalogHandler[T, R]) PublicList(c *apihandler.Context) error {
	return h.list(c, true)
}

func (h *CatalogHandler[T, R]) ListAll(c *apihandler.Context) error {
	return h.list(c, false)
}

func (h *CatalogHandler[T, R]) list(c *apihandler.Context, activeOnly bool) error {
	items, err := h.service.List(c.Request().Context(), activeOnly)
	if err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler[T, R]) PublicGet(c *apihandler.Context) error {
	return h.get(c, true)
}

func (h *CatalogHandler[T, R]) Get(c *apihandler.Context) error {
	return h.get(c, false)
}

func (h *CatalogHandler[T, R]) get(c *apihandler.Context, activeOnly bool) error {
	id, err := stringParam(c, "id")
	if err != nil {
		return err
	}
	item, err := h.service.Get(c.Request().Context(), id, activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler[T, R]) Create(c *apihandler.Context) error {
	req := apihandler.BodyAs[R](c)
	item := (*req).entity("")
	if err := h.service.Create(c.Request().Context(), item); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *CatalogHandler[T, R]) Update(c *apihandler.Context) error {
	id, err := stringParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.service.Get(ctx, id, false); err != nil {
		return err
	}

	req := apihandler.BodyAs[R](c)
	item := (*req).entity(id)
	if err := h.service.Update(ctx, item); err != nil {
		return err
	}
	updated, err := h.service.Get(ctx, id, false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler[T, R]) Delete(c *apihandler.Context) error {
	id, err := stringParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// JobRequest is the writable part of a job posting.
type JobRequest struct {
	Title            string  `json:"title" validate:"required,max=255"`
	Department       string  `json:"department" validate:"required,max=255"`
	Location         string  `json:"location" validate:"required,max=255"`
	Type             string  `json:"type" validate:"required,max=50"`
	Description      string  `json:"description" validate:"required"`
	Responsibilities string  `json:"responsibilities" validate:"required"`
	Requirements     string  `json:"requirements" validate:"required"`
	Benefits         *string `json:"benefits,omitempty"`
	Salary           *string `json:"salary,omitempty" validate:"omitempty,max=255"`
	Active           *bool   `json:"active,omitempty"`
}

func (r JobRequest) entity(id string) *domain.Job {
	return &domain.Job{
		ID:               id,
		Title:            r.Title,
		Department:       r.Department,
		Location:         r.Location,
		Type:             r.Type,
		Description:      r.Description,
		Responsibilities: r.Responsibilities,
		Requirements:     r.Requirements,
		Benefits:         r.Benefits,
		Salary:           r.Salary,
		Active:           activeOrDefault(r.Active),
	}
}

// SlideRequest is the writable part of a homepage slide.
type SlideRequest struct {
	Title        string `json:"title" validate:"required,max=255"`
	Description  string `json:"description" validate:"required"`
	ImageURL     string `json:"image_url" validate:"required,url,max=1024"`
	IconType     string `json:"icon_type" validate:"required,max=50"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
	Active       *bool  `json:"active,omitempty"`
}

func (r SlideRequest) entity(id string) *domain.SlideShow {
	return &domain.SlideShow{
		ID:           id,
		Title:        r.Title,
		Description:  r.Description,
		ImageURL:     r.ImageURL,
		IconType:     r.IconType,
		DisplayOrder: r.DisplayOrder,
		Active:       activeOrDefault(r.Active),
	}
}

type (
	JobHandler   = CatalogHandler[domain.Job, JobRequest]
	SlideHandler = CatalogHandler[domain.SlideShow, SlideRequest]
)

func NewJobHandler(jobs ports.CatalogService[domain.Job]) *JobHandler {
	return NewCatalogHandler[domain.Job, JobRequest](jobs)
}

func NewSlideHandler(slides ports.CatalogService[domain.SlideShow]) *SlideHandler {
	return NewCatalogHandler[domain.SlideShow, SlideRequest](slides)
}

func activeOrDefault(v *bool) bool {
	return v == nil || *v
}
