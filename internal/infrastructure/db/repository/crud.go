package repository

import (
	"context"

	"gorm.io/gorm"
)

// Crud is a GORM repository for models keyed by a string id with an
// "active" flag.
type Crud[T any] struct {
	db    *gorm.DB
	name  string
	order string
}

// NewCrud returns a Crud that lists records in the given order clause.
func NewCrud[T any](db *gorm.DB, name, order string) *Crud[T] {
	return &Crud[T]{db: db, name: name, order: order}
}

func (r *Crud[T]) Create(ctx context.Context, entity *T) error {
	return translate("create "+r.name, r.db.WithContext(ctx).Create(entity).Error)
}

// Update writes every column of entity, zero values included.
func (r *Crud[T]) Update(ctx context.Context, entity *T) error {
	res := r.db.WithContext(ctx).Model(entity).Select("*").Omit("id", "created_at").Updates(entity)
	return affected("update "+r.name, res)
}

func (r *Crud[T]) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	return affected("delete "+r.name, res)
}

func (r *Crud[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, translate("find "+r.name, err)
	}
	return &entity, nil
}

func (r *Crud[T]) List(ctx context.Context, activeOnly bool) ([]T, error) {
	q := r.db.WithContext(ctx).Order(r.order)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, translate("list "+r.name, err)
	}
	return out, nil
}
