package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tablewise/restaurant-backoffice/internal/api/apihandler"
	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

type fixedSession struct{ session *domain.Session }

func (f fixedSession) Session(echo.Context) (*domain.Session, error) { return f.session, nil }

func userSession(id, role string) *domain.Session {
	return &domain.Session{
		User:    domain.SessionUser{ID: id, Email: "owner@bistro.test", Role: role, Kind: domain.PrincipalUser},
		TokenID: "jti-1",
	}
}

func staffSession() *domain.Session {
	return &domain.Session{User: domain.SessionUser{ID: "9b2f", Email: "ops@bistro.test", Role: domain.RoleAdmin, Kind: domain.PrincipalStaff}}
}

// route mounts h at path through the handler factory and serves one request.
func route(t *testing.T, path string, opts apihandler.Options, session *domain.Session, h apihandler.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	f := apihandler.NewFactory(fixedSession{session: session}, apihandler.NewResponder(zerolog.Nop(), false), zerolog.Nop())
	e.Any(path, f.Create(opts, h))

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string, remember bool) (*ports.LoginResult, error)
	logoutFn   func(ctx context.Context, session *domain.Session) error
	forgotFn   func(ctx context.Context, email string) error
	resetFn    func(ctx context.Context, token, password string) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string, remember bool) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password, remember)
}

func (s *stubAuthService) StaffLogin(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password, false)
}

func (s *stubAuthService) Logout(ctx context.Context, session *domain.Session) error {
	return s.logoutFn(ctx, session)
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, token, password string) error {
	return s.resetFn(ctx, token, password)
}

type stubUserService struct {
	users map[uint]*domain.User
}

func (s *stubUserService) Get(_ context.Context, id uint) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubUserService) List(context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id uint, p domain.ProfileUpdate) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		u.Name = p.Name
	}
	return u, nil
}

func (s *stubUserService) UpdateRole(ctx context.Context, id uint, role string) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Role = role
	return u, nil
}

type stubPageService struct {
	created   *domain.Page
	createErr error
	placement string
}

func (s *stubPageService) Create(_ context.Context, page *domain.Page) error {
	if s.createErr != nil {
		return s.createErr
	}
	page.ID = 1
	s.created = page
	return nil
}

func (s *stubPageService) Update(context.Context, *domain.Page) error { return nil }
func (s *stubPageService) Delete(context.Context, uint) error { return domain.ErrNotFound }
func (s *stubPageService) Get(_ context.Context, id uint) (*domain.Page, error) {
	return &domain.Page{ID: id, Slug: "about", Title: "About"}, nil
}

func (s *stubPageService) GetBySlug(_ context.Context, slug string) (*domain.Page, error) {
	if slug == "about" {
		return &domain.Page{ID: 1, Slug: slug, Title: "About"}, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubPageService) List(context.Context) ([]domain.Page, error) { return nil, nil }

func (s *stubPageService) Menu(_ context.Context, placement string) ([]*domain.MenuItem, error) {
	s.placement = placement
	if placement != domain.PlacementMenu && placement != domain.PlacementFooter {
		return nil, domain.ErrInvalidPlacement
	}
	return nil, nil
}

type stubJobService struct {
	items map[string]*domain.Job
}

func (s *stubJobService) Create(_ context.Context, item *domain.Job) error {
	item.ID = "job-1"
	s.items[item.ID] = item
	return nil
}

func (s *stubJobService) Update(_ context.Context, item *domain.Job) error {
	s.items[item.ID] = item
	return nil
}

func (s *stubJobService) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *stubJobService) Get(_ context.Context, id string, activeOnly bool) (*domain.Job, error) {
	item, ok := s.items[id]
	if !ok || (activeOnly && !item.Active) {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *stubJobService) List(_ context.Context, activeOnly bool) ([]domain.Job, error) {
	var out []domain.Job
	for _, item := range s.items {
		if !activeOnly || item.Active {
			out = append(out, *item)
		}
	}
	return out, nil
}

type stubStaffService struct {
	created *ports.StaffInput
}

func (s *stubStaffService) Create(_ context.Context, in ports.StaffInput) (*domain.StaffMember, error) {
	s.created = &in
	return &domain.StaffMember{ID: "s-1", Email: in.Email, Name: in.Name, Role: domain.RoleEditor, Active: in.Active}, nil
}

func (s *stubStaffService) Update(_ context.Context, id string, in ports.StaffInput) (*domain.StaffMember, error) {
	return &domain.StaffMember{ID: id, Email: in.Email, Name: in.Name, Role: in.Role, Active: in.Active}, nil
}

func (s *stubStaffService) Delete(context.Context, string) error { return nil }
func (s *stubStaffService) Get(_ context.Context, id string) (*domain.StaffMember, error) {
	return &domain.StaffMember{ID: id}, nil
}
func (s *stubStaffService) List(context.Context) ([]domain.StaffMember, error) { return nil, nil }

type stubBillingService struct {
	checkoutUser uint
	checkoutPlan string
	portalErr    error
	payload      []byte
	signature    string
	webhookErr   error
}

func (s *stubBillingService) Checkout(_ context.Context, userID uint, plan string) (string, error) {
	s.checkoutUser, s.checkoutPlan = userID, plan
	return "https://checkout.stripe.test/c/pay/cs_1", nil
}

func (s *stubBillingService) Portal(context.Context, uint) (string, error) {
	if s.portalErr != nil {
		return "", s.portalErr
	}
	return "https://billing.stripe.test/p/session", nil
}

func (s *stubBillingService) Subscription(context.Context, uint) (*domain.Subscription, error) {
	return &domain.Subscription{Plan: domain.PlanStarter, Status: domain.SubscriptionActive}, nil
}

func (s *stubBillingService) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	s.payload, s.signature = payload, signature
	return s.webhookErr
}
