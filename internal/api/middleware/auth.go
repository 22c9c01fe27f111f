package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

// SessionCookie is the cookie that carries the session token for browser
// clients.
const SessionCookie = "session"

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenRevoked = errors.New("session token revoked")
)

// JWTSessions resolves sessions from HS256 tokens found in the Authorization
// header or the session cookie. Revoked token ids are rejected.
type JWTSessions struct {
	secret  []byte
	revoked ports.TokenRevocationStore
}

func NewJWTSessions(jwtSecret string, revoked ports.TokenRevocationStore) *JWTSessions {
	return &JWTSessions{secret: []byte(jwtSecret), revoked: revoked}
}

// Session returns (nil, nil) when the request carries no token.
func (s *JWTSessions) Session(c echo.Context) (*domain.Session, error) {
	raw, err := tokenFromRequest(c)
	if err != nil || raw == "" {
		return nil, err
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	session := &domain.Session{
		User: domain.SessionUser{
			ID:    stringClaim(claims, "sub"),
			Email: stringClaim(claims, "email"),
			Role:  stringClaim(claims, "role"),
			Kind:  stringClaim(claims, "kind"),
		},
		TokenID: stringClaim(claims, "jti"),
	}
	if session.User.ID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if session.User.Kind == "" {
		session.User.Kind = domain.PrincipalUser
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	} else {
		session.ExpiresAt = time.Now().Add(24 * time.Hour)
	}

	if s.revoked != nil && session.TokenID != "" {
		revoked, err := s.revoked.IsRevoked(c.Request().Context(), session.TokenID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return session, nil
}

func tokenFromRequest(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", fmt.Errorf("%w: invalid authorization header", ErrInvalidToken)
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie.Value, nil
	}
	return "", nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
