package ports

import (
	"context"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Email    string
	Password string
	Name     *string
	Username *string
	Phone    *string
}

// LoginResult is an issued session token and the principal it belongs to.
type LoginResult struct {
	Token     string
	ExpiresIn int64
	User      domain.SessionUser
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string, remember bool) (*LoginResult, error)
	StaffLogin(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, session *domain.Session) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type UserService interface {
	Get(ctx context.Context, id uint) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id uint, p domain.ProfileUpdate) (*domain.User, error)
	UpdateRole(ctx context.Context, id uint, role string) (*domain.User, error)
}

type PageService interface {
	Create(ctx context.Context, page *domain.Page) error
	Update(ctx context.Context, page *domain.Page) error
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*domain.Page, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Page, error)
	List(ctx context.Context) ([]domain.Page, error)
	Menu(ctx context.Context, placement string) ([]*domain.MenuItem, error)
}

// StaffInput is the writable part of a staff member. Password is only
// applied when non-empty.
type StaffInput struct {
	Email    string
	Name     string
	Password string
	Role     string
	Active   bool
}

type StaffService interface {
	Create(ctx context.Context, in StaffInput) (*domain.StaffMember, error)
	Update(ctx context.Context, id string, in StaffInput) (*domain.StaffMember, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.StaffMember, error)
	List(ctx context.Context) ([]domain.StaffMember, error)
}

// CatalogService manages a publishable collection such as job postings or
// homepage slides.
type CatalogService[T any] interface {
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string, activeOnly bool) (*T, error)
	List(ctx context.Context, activeOnly bool) ([]T, error)
}

type BillingService interface {
	Checkout(ctx context.Context, userID uint, plan string) (string, error)
	Portal(ctx context.Context, userID uint) (string, error)
	Subscription(ctx context.Context, userID uint) (*domain.Subscription, error)
	// HandleWebhook verifies, de-duplicates, records and enqueues an event.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// BillingEventProcessor applies one verified billing event to account state.
type BillingEventProcessor interface {
	Apply(ctx context.Context, event domain.BillingEvent) error
	// Abandon is called once after the last failed Apply of an event.
	Abandon(ctx context.Context, event domain.BillingEvent, err error)
}
