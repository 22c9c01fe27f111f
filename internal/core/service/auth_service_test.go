package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

type authFixture struct {
	svc     *AuthService
	users   *stubUserRepo
	staff   *stubStaffRepo
	revoked *stubRevocation
	mailer  *stubMailer
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:   newStubUserRepo(),
		staff:   newStubStaffRepo(),
		revoked: &stubRevocation{},
		mailer:  &stubMailer{},
	}
	f.svc = NewAuthService(f.users, f.staff, f.revoked, f.mailer, AuthConfig{
		JWTSecret: "secret",
		TokenTTL:  time.Hour,
		PublicURL: "https://app.bistro.test/",
	}, zerolog.Nop())
	return f
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	return claims
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture()

	user, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: " Alice@Example.com ", Password: "pass1234"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalised email, got %q", user.Email)
	}
	if user.PasswordHash == "pass1234" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass1234")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleUser || user.SubscriptionPlan != domain.PlanFree {
		t.Fatalf("unexpected defaults: role=%s plan=%s", user.Role, user.SubscriptionPlan)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture()

	_, _ = f.svc.Register(context.Background(), ports.RegisterInput{Email: "bob@example.com", Password: "pass1234"})
	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "bob@example.com", Password: "other123"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "carol@example.com", Password: "s3cret!!"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := f.svc.Login(context.Background(), "carol@example.com", "s3cret!!", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.ExpiresIn != int64(time.Hour.Seconds()) {
		t.Fatalf("unexpected ttl %d", res.ExpiresIn)
	}

	claims := parseClaims(t, res.Token)
	if claims["role"] != domain.RoleUser || claims["kind"] != domain.PrincipalUser {
		t.Fatalf("unexpected claims: %v", claims)
	}
	if claims["sub"] != res.User.ID || claims["jti"] == "" {
		t.Fatalf("missing subject or token id: %v", claims)
	}
}

func TestAuthService_Login_RememberExtendsTTL(t *testing.T) {
	f := newAuthFixture()
	user, _ := f.svc.Register(context.Background(), ports.RegisterInput{Email: "dan@example.com", Password: "pass1234"})

	res, err := f.svc.Login(context.Background(), "dan@example.com", "pass1234", true)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.ExpiresIn != int64(defaultRememberTTL.Seconds()) {
		t.Fatalf("expected remember ttl, got %d", res.ExpiresIn)
	}
	stored, _ := f.users.FindByID(context.Background(), user.ID)
	jti, _ := parseClaims(t, res.Token)["jti"].(string)
	if stored.RememberToken == nil || *stored.RememberToken != hashToken(jti) {
		t.Fatalf("remember token must be the hash of the session id")
	}
	if *stored.RememberToken == jti {
		t.Fatalf("remember token stored in plaintext")
	}
}

func TestAuthService_Logout_ClearsOnlyRememberedSession(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user, _ := f.svc.Register(ctx, ports.RegisterInput{Email: "erin@example.com", Password: "pass1234"})

	remembered, err := f.svc.Login(ctx, "erin@example.com", "pass1234", true)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	short, err := f.svc.Login(ctx, "erin@example.com", "pass1234", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	sessionOf := func(res *ports.LoginResult) *domain.Session {
		jti, _ := parseClaims(t, res.Token)["jti"].(string)
		return &domain.Session{User: res.User, TokenID: jti, ExpiresAt: time.Now().Add(time.Hour)}
	}

	if err := f.svc.Logout(ctx, sessionOf(short)); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	stored, _ := f.users.FindByID(ctx, user.ID)
	if stored.RememberToken == nil {
		t.Fatalf("logging out another session must keep the remember token")
	}

	if err := f.svc.Logout(ctx, sessionOf(remembered)); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	stored, _ = f.users.FindByID(ctx, user.ID)
	if stored.RememberToken != nil {
		t.Fatalf("remember token must be cleared with its session")
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	f := newAuthFixture()
	_, _ = f.svc.Register(context.Background(), ports.RegisterInput{Email: "dave@example.com", Password: "goodpass"})

	cases := []struct{ email, password string }{
		{"dave@example.com", "badpass"},
		{"ghost@example.com", "goodpass"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := f.svc.Login(context.Background(), tc.email, tc.password, false); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", tc.email, err)
		}
	}
}

func TestAuthService_StaffLogin(t *testing.T) {
	f := newAuthFixture()
	hash, _ := bcrypt.GenerateFromPassword([]byte("opspass1"), bcrypt.MinCost)
	_ = f.staff.Create(context.Background(), &domain.StaffMember{Email: "ops@bistro.test", Name: "Ops", PasswordHash: string(hash), Role: domain.RoleAdmin, Active: true})
	_ = f.staff.Create(context.Background(), &domain.StaffMember{Email: "gone@bistro.test", Name: "Gone", PasswordHash: string(hash), Role: domain.RoleEditor})

	res, err := f.svc.StaffLogin(context.Background(), "ops@bistro.test", "opspass1")
	if err != nil {
		t.Fatalf("staff login failed: %v", err)
	}
	claims := parseClaims(t, res.Token)
	if claims["kind"] != domain.PrincipalStaff || claims["role"] != domain.RoleAdmin {
		t.Fatalf("unexpected claims: %v", claims)
	}

	if _, err := f.svc.StaffLogin(context.Background(), "gone@bistro.test", "opspass1"); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestAuthService_Logout_RevokesToken(t *testing.T) {
	f := newAuthFixture()
	exp := time.Now().Add(time.Hour)
	session := &domain.Session{
		User:      domain.SessionUser{ID: "1", Kind: domain.PrincipalUser},
		TokenID:   "jti-1",
		ExpiresAt: exp,
	}

	if err := f.svc.Logout(context.Background(), session); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if until, ok := f.revoked.revoked["jti-1"]; !ok || !until.Equal(exp) {
		t.Fatalf("token not revoked until expiry: %v", f.revoked.revoked)
	}
}

var tokenInLink = regexp.MustCompile(`token=([0-9a-f]{64})`)

func TestAuthService_PasswordResetFlow(t *testing.T) {
	f := newAuthFixture()
	user, _ := f.svc.Register(context.Background(), ports.RegisterInput{Email: "erin@example.com", Password: "oldpass1"})

	if err := f.svc.ForgotPassword(context.Background(), "erin@example.com"); err != nil {
		t.Fatalf("forgot failed: %v", err)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(f.mailer.sent))
	}
	mail := f.mailer.sent[0]
	if mail.to != "erin@example.com" || !strings.Contains(mail.body, "https://app.bistro.test/reset-password?token=") {
		t.Fatalf("unexpected mail: %+v", mail)
	}
	m := tokenInLink.FindStringSubmatch(mail.body)
	if m == nil {
		t.Fatalf("no token in mail body")
	}

	stored, _ := f.users.FindByID(context.Background(), user.ID)
	if stored.ResetToken == nil || *stored.ResetToken == m[1] {
		t.Fatalf("reset token must be stored hashed")
	}

	if err := f.svc.ResetPassword(context.Background(), "wrong", "newpass1"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
	if err := f.svc.ResetPassword(context.Background(), m[1], "newpass1"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "erin@example.com", "newpass1", false); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if err := f.svc.ResetPassword(context.Background(), m[1], "again123"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("token must be single-use, got %v", err)
	}
}

func TestAuthService_ResetPassword_Expired(t *testing.T) {
	f := newAuthFixture()
	_, _ = f.svc.Register(context.Background(), ports.RegisterInput{Email: "finn@example.com", Password: "oldpass1"})
	_ = f.svc.ForgotPassword(context.Background(), "finn@example.com")
	token := tokenInLink.FindStringSubmatch(f.mailer.sent[0].body)[1]

	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err := f.svc.ResetPassword(context.Background(), token, "newpass1"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
}

func TestAuthService_ForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture()
	if err := f.svc.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("no mail expected")
	}
}
