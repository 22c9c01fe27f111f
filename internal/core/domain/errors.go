package domain

import "errors"

var (
	ErrNotFound           = errors.New("record not found")
	ErrConflict           = errors.New("record already exists")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrParentCycle        = errors.New("page parent would create a cycle")
	ErrParentNotFound     = errors.New("parent page does not exist")
	ErrInvalidPlacement   = errors.New("placement must be menu or footer")
	ErrUnknownPlan        = errors.New("unknown subscription plan")
	ErrNoBillingAccount   = errors.New("no billing account for user")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrPaymentProvider    = errors.New("payment provider unavailable")
)
