package domain

import "time"

const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

const (
	PlanFree         = "free"
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"

	SubscriptionInactive = "inactive"
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
	SubscriptionExpired  = "expired"
)

// User is a restaurant account holder. Users are never hard-deleted.
type User struct {
	ID                      uint       `json:"id" gorm:"primaryKey"`
	Email                   string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Name                    *string    `json:"name,omitempty" gorm:"size:255"`
	Username                *string    `json:"username,omitempty" gorm:"size:100"`
	Phone                   *string    `json:"phone,omitempty" gorm:"size:50"`
	PasswordHash            string     `json:"-" gorm:"column:password_hash;size:255;not null"`
	Role                    string     `json:"role" gorm:"size:50;not null;default:user"`
	SubscriptionPlan        string     `json:"subscription_plan" gorm:"size:50;not null;default:free"`
	SubscriptionStatus      string     `json:"subscription_status" gorm:"size:50;not null;default:inactive"`
	StripeCustomerID        *string    `json:"-" gorm:"uniqueIndex;size:255"`
	StripeSubscriptionID    *string    `json:"-" gorm:"size:255"`
	SubscriptionPeriodStart *time.Time `json:"subscription_period_start,omitempty"`
	SubscriptionPeriodEnd   *time.Time `json:"subscription_period_end,omitempty"`
	ResetToken              *string    `json:"-" gorm:"size:255;index"`
	ResetTokenExpiry        *time.Time `json:"-"`
	RememberToken           *string    `json:"-" gorm:"size:255"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// EffectiveRole returns the user's role, falling back to RoleUser when unset.
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}

// ProfileUpdate carries the user-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name     *string
	Username *string
	Phone    *string
}

// SubscriptionUpdate carries billing state changes coming from the payment
// provider. Nil means unchanged.
type SubscriptionUpdate struct {
	CustomerID     *string
	SubscriptionID *string
	Plan           *string
	Status         *string
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
}

// Subscription is the read model returned to the account owner.
type Subscription struct {
	Plan        string     `json:"plan"`
	Status      string     `json:"status"`
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
	HasCustomer bool       `json:"has_billing_account"`
}
