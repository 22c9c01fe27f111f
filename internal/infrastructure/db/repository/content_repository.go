package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

// NewJobRepository lists postings newest first.
func NewJobRepository(db *gorm.DB) ports.CrudRepository[domain.Job] {
	return NewCrud[domain.Job](db, "job", "created_at DESC")
}

// NewSlideRepository lists slides in display order.
func NewSlideRepository(db *gorm.DB) ports.CrudRepository[domain.SlideShow] {
	return NewCrud[domain.SlideShow](db, "slide", "display_order ASC, created_at ASC")
}

// StaffRepository implements ports.StaffRepository.
type StaffRepository struct {
	*Crud[domain.StaffMember]
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{Crud: NewCrud[domain.StaffMember](db, "staff member", "name ASC")}
}

func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	var m domain.StaffMember
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		return nil, translate("find staff member", err)
	}
	return &m, nil
}
