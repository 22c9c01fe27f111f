package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

// UserRepository implements ports.UserRepository using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return translate("create user", r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	return r.first(ctx, "reset_token = ?", tokenHash)
}

func (r *UserRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	return r.first(ctx, "stripe_customer_id = ?", customerID)
}

func (r *UserRepository) first(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&u).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, translate("list users", err)
	}
	return users, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, p domain.ProfileUpdate) (*domain.User, error) {
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Username != nil {
		fields["username"] = *p.Username
	}
	if p.Phone != nil {
		fields["phone"] = *p.Phone
	}
	if err := r.update(ctx, "update profile", id, fields); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uint, role string) (*domain.User, error) {
	if err := r.update(ctx, "update role", id, map[string]any{"role": role}); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.update(ctx, "update password", id, map[string]any{
		"password_hash":      passwordHash,
		"reset_token":        nil,
		"reset_token_expiry": nil,
	})
}

func (r *UserRepository) SetResetToken(ctx context.Context, id uint, tokenHash string, expiry time.Time) error {
	return r.update(ctx, "set reset token", id, map[string]any{
		"reset_token":        tokenHash,
		"reset_token_expiry": expiry,
	})
}

func (r *UserRepository) SetRememberToken(ctx context.Context, id uint, token *string) error {
	return r.update(ctx, "set remember token", id, map[string]any{"remember_token": token})
}

func (r *UserRepository) UpdateSubscription(ctx context.Context, id uint, u domain.SubscriptionUpdate) error {
	fields := map[string]any{}
	if u.CustomerID != nil {
		fields["stripe_customer_id"] = *u.CustomerID
	}
	if u.SubscriptionID != nil {
		fields["stripe_subscription_id"] = *u.SubscriptionID
	}
	if u.Plan != nil {
		fields["subscription_plan"] = *u.Plan
	}
	if u.Status != nil {
		fields["subscription_status"] = *u.Status
	}
	if u.PeriodStart != nil {
		fields["subscription_period_start"] = *u.PeriodStart
	}
	if u.PeriodEnd != nil {
		fields["subscription_period_end"] = *u.PeriodEnd
	}
	return r.update(ctx, "update subscription", id, fields)
}

// update applies fields to one user. An empty change set only checks that the
// user exists.
func (r *UserRepository) update(ctx context.Context, op string, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	return affected(op, res)
}
