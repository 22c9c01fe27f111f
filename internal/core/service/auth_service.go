package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

const (
	defaultTokenTTL    = 24 * time.Hour
	defaultRememberTTL = 30 * 24 * time.Hour
	defaultResetTTL    = time.Hour
)

// AuthConfig holds token lifetimes and the public site URL used in e-mails.
type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	RememberTTL time.Duration
	ResetTTL    time.Duration
	PublicURL   string
}

// AuthService implements registration, login, logout and password reset.
type AuthService struct {
	users   ports.UserRepository
	staff   ports.StaffRepository
	revoked ports.TokenRevocationStore
	mailer  ports.Mailer
	cfg     AuthConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	staff ports.StaffRepository,
	revoked ports.TokenRevocationStore,
	mailer ports.Mailer,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.RememberTTL <= 0 {
		cfg.RememberTTL = defaultRememberTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = defaultResetTTL
	}
	return &AuthService{
		users:   users,
		staff:   staff,
		revoked: revoked,
		mailer:  mailer,
		cfg:     cfg,
		log:     log.With().Str("component", "auth_service").Logger(),
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:              email,
		Name:               in.Name,
		Username:           in.Username,
		Phone:              in.Phone,
		PasswordHash:       string(hash),
		Role:               domain.RoleUser,
		SubscriptionPlan:   domain.PlanFree,
		SubscriptionStatus: domain.SubscriptionInactive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*ports.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	ttl, tokenID := s.cfg.TokenTTL, uuid.NewString()
	if remember {
		// The stored hash binds the long-lived session to the account so that
		// logging out of that session drops it.
		ttl = s.cfg.RememberTTL
		hash := hashToken(tokenID)
		if err := s.users.SetRememberToken(ctx, user.ID, &hash); err != nil {
			return nil, err
		}
	}

	principal := domain.SessionUser{
		ID:    strconv.FormatUint(uint64(user.ID), 10),
		Email: user.Email,
		Role:  user.EffectiveRole(),
		Kind:  domain.PrincipalUser,
	}
	return s.issue(principal, tokenID, ttl)
}

func (s *AuthService) StaffLogin(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	member, err := s.staff.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !member.Active {
		return nil, domain.ErrAccountDisabled
	}

	return s.issue(domain.SessionUser{
		ID:    member.ID,
		Email: member.Email,
		Role:  member.Role,
		Kind:  domain.PrincipalStaff,
	}, uuid.NewString(), s.cfg.TokenTTL)
}

// Logout revokes the session token until it would have expired. When the
// session is the account's remembered one, the remember token is cleared too.
func (s *AuthService) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil || session.TokenID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return err
	}
	if session.User.Kind != domain.PrincipalUser {
		return nil
	}

	id, err := strconv.ParseUint(session.User.ID, 10, 64)
	if err != nil {
		return nil
	}
	user, err := s.users.FindByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.RememberToken == nil || *user.RememberToken != hashToken(session.TokenID) {
		return nil
	}
	return s.users.SetRememberToken(ctx, user.ID, nil)
}

// ForgotPassword stores a hashed one-time token and mails the reset link.
// Unknown addresses are not reported to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Debug().Msg("password reset requested for unknown e-mail")
			return nil
		}
		return err
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, hashToken(token), s.now().Add(s.cfg.ResetTTL)); err != nil {
		return err
	}

	link := strings.TrimRight(s.cfg.PublicURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
	body := fmt.Sprintf(
		`<p>We received a request to reset your password.</p><p><a href="%s">Choose a new password</a></p><p>The link expires in %s.</p>`,
		html.EscapeString(link), s.cfg.ResetTTL,
	)
	if err := s.mailer.Send(ctx, user.Email, "Reset your password", body); err != nil {
		s.log.Error().Err(err).Uint("user_id", user.ID).Msg("password reset mail failed")
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return domain.ErrInvalidResetToken
	}

	user, err := s.users.FindByResetToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidResetToken
		}
		return err
	}
	if user.ResetTokenExpiry == nil || s.now().After(*user.ResetTokenExpiry) {
		return domain.ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *AuthService) issue(principal domain.SessionUser, tokenID string, ttl time.Duration) (*ports.LoginResult, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   principal.ID,
		"email": principal.Email,
		"role":  principal.Role,
		"kind":  principal.Kind,
		"jti":   tokenID,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{
		Token:     signed,
		ExpiresIn: int64(ttl.Seconds()),
		User:      principal,
	}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
