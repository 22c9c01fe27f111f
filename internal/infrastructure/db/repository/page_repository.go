package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

// PageRepository implements ports.PageRepository using GORM.
type PageRepository struct {
	db *gorm.DB
}

func NewPageRepository(db *gorm.DB) *PageRepository {
	return &PageRepository{db: db}
}

func (r *PageRepository) Create(ctx context.Context, page *domain.Page) error {
	return translate("create page", r.db.WithContext(ctx).Create(page).Error)
}

func (r *PageRepository) Update(ctx context.Context, page *domain.Page) error {
	res := r.db.WithContext(ctx).Model(page).Select("*").Omit("id", "created_at").Updates(page)
	return affected("update page", res)
}

func (r *PageRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Page{}, id)
	return affected("delete page", res)
}

func (r *PageRepository) FindByID(ctx context.Context, id uint) (*domain.Page, error) {
	var p domain.Page
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate("find page", err)
	}
	return &p, nil
}

func (r *PageRepository) FindBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	var p domain.Page
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, translate("find page", err)
	}
	return &p, nil
}

func (r *PageRepository) List(ctx context.Context) ([]domain.Page, error) {
	var pages []domain.Page
	if err := r.db.WithContext(ctx).Order("menu_order ASC, id ASC").Find(&pages).Error; err != nil {
		return nil, translate("list pages", err)
	}
	return pages, nil
}

func (r *PageRepository) ListByPlacement(ctx context.Context, placement string) ([]domain.Page, error) {
	var column string
	switch placement {
	case domain.PlacementMenu:
		column = "show_in_menu"
	case domain.PlacementFooter:
		column = "show_in_footer"
	default:
		return nil, fmt.Errorf("unknown placement %q", placement)
	}

	var pages []domain.Page
	err := r.db.WithContext(ctx).
		Select("id", "slug", "title", "menu_order", "parent_id", "show_in_menu", "show_in_footer").
		Where(column+" = ?", true).
		Order("menu_order ASC, id ASC").
		Find(&pages).Error
	if err != nil {
		return nil, translate("list pages", err)
	}
	return pages, nil
}
