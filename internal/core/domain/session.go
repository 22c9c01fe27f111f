package domain

import "time"

const (
	PrincipalUser  = "user"
	PrincipalStaff = "staff"
)

// SessionUser is the part of an authenticated principal the API layer reads.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	// Kind is PrincipalUser or PrincipalStaff.
	Kind string `json:"kind"`
}

// EffectiveRole returns Role, or RoleUser when the session carries none.
func (u SessionUser) EffectiveRole() string {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}

// Session is an authenticated request context resolved from a token.
type Session struct {
	User      SessionUser
	TokenID   string
	ExpiresAt time.Time
}
