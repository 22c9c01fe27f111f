package ports

import (
	"context"
	"time"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

// CrudRepository is the persistence contract shared by the simple catalog
// entities (staff, jobs, slides). IDs are UUID strings.
type CrudRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*T, error)
	// List returns every record, or only active ones when activeOnly is set.
	List(ctx context.Context, activeOnly bool) ([]T, error)
}

// UserRepository defines persistence operations for account holders.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id uint, p domain.ProfileUpdate) (*domain.User, error)
	UpdateRole(ctx context.Context, id uint, role string) (*domain.User, error)
	// UpdatePassword stores a new hash and clears any pending reset token.
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	SetResetToken(ctx context.Context, id uint, tokenHash string, expiry time.Time) error
	SetRememberToken(ctx context.Context, id uint, token *string) error
	UpdateSubscription(ctx context.Context, id uint, u domain.SubscriptionUpdate) error
}

// PageRepository defines persistence operations for CMS pages.
type PageRepository interface {
	Create(ctx context.Context, page *domain.Page) error
	Update(ctx context.Context, page *domain.Page) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*domain.Page, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Page, error)
	List(ctx context.Context) ([]domain.Page, error)
	// ListByPlacement returns pages flagged for the menu or footer, ordered by
	// menu_order.
	ListByPlacement(ctx context.Context, placement string) ([]domain.Page, error)
}

// StaffRepository adds e-mail lookup to the generic staff CRUD.
type StaffRepository interface {
	CrudRepository[domain.StaffMember]
	FindByEmail(ctx context.Context, email string) (*domain.StaffMember, error)
}
