package handler

import (
	"net/http"
	"time"

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
	"github.com/tablewise/restaurant-backoffice/internal/api/middleware"
	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

type AuthHandler struct {
	authService   ports.AuthService
	secureCookies bool
}

// NewAuthHandler returns the auth handlers. secureCookies marks the session
// cookie Secure and should be set in production.
func NewAuthHandler(authService ports.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies}
}

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Name     *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type authResponse struct {
	Token     string             `json:"token"`
	ExpiresIn int64              `json:"expires_in"`
	User      domain.SessionUser `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates a new account.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      RegisterRequest  true  "Account details"
// @Success      201   {object}  domain.User
// @Failure      409   {object}  apihandler.ErrorBody
// @Failure      422   {object}  apihandler.ErrorBody
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *apihandler.Context) error {
	req := apihandler.BodyAs[RegisterRequest](c)

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Username: req.Username,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Login authenticates an account holder and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  apihandler.ErrorBody
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *apihandler.Context) error {
	req := apihandler.BodyAs[LoginRequest](c)

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, req.Remember)
	if err != nil {
		return err
	}
	return h.issued(c, res)
}

// StaffLogin authenticates a back-office operator.
//
// @Summary      Staff login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  apihandler.ErrorBody
// @Failure      403   {object}  apihandler.ErrorBody
// @Router       /api/auth/staff/login [post]
func (h *AuthHandler) StaffLogin(c *apihandler.Context) error {
	req := apihandler.BodyAs[LoginRequest](c)

	res, err := h.authService.StaffLogin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.issued(c, res)
}

// Logout revokes the current session.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  apihandler.ErrorBody
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *apihandler.Context) error {
	if err := h.authService.Logout(c.Request().Context(), c.Session); err != nil {
		return err
	}
	c.SetCookie(h.cookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

// ForgotPassword mails a reset link when the address belongs to an account.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ForgotPasswordRequest  true  "Account e-mail"
// @Success      200   {object}  messageResponse
// @Router       /api/auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(c *apihandler.Context) error {
	req := apihandler.BodyAs[ForgotPasswordRequest](c)

	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{
		Message: "If an account exists for that e-mail, a reset link has been sent",
	})
}

// ResetPassword sets a new password using a reset token.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ResetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  apihandler.ErrorBody
// @Router       /api/auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c *apihandler.Context) error {
	req := apihandler.BodyAs[ResetPasswordRequest](c)

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password updated"})
}

func (h *AuthHandler) issued(c *apihandler.Context, res *ports.LoginResult) error {
	c.SetCookie(h.cookie(res.Token, int(res.ExpiresIn)))
	return c.JSON(http.StatusOK, authResponse{
		Token:     res.Token,
		ExpiresIn: res.ExpiresIn,
		User:      res.User,
	})
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	ck := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		ck.Expires = time.Unix(0, 0)
	}
	return ck
}
