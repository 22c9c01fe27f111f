package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

type stubUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uint]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) FindByResetToken(_ context.Context, tokenHash string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ResetToken != nil && *u.ResetToken == tokenHash })
}

func (r *stubUserRepo) FindByStripeCustomerID(_ context.Context, customerID string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.StripeCustomerID != nil && *u.StripeCustomerID == customerID })
}

func (r *stubUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) mutate(id uint, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(u)
	return nil
}

func (r *stubUserRepo) UpdateProfile(ctx context.Context, id uint, p domain.ProfileUpdate) (*domain.User, error) {
	err := r.mutate(id, func(u *domain.User) {
		if p.Name != nil {
			u.Name = p.Name
		}
		if p.Username != nil {
			u.Username = p.Username
		}
		if p.Phone != nil {
			u.Phone = p.Phone
		}
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *stubUserRepo) UpdateRole(ctx context.Context, id uint, role string) (*domain.User, error) {
	if err := r.mutate(id, func(u *domain.User) { u.Role = role }); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id uint, hash string) error {
	return r.mutate(id, func(u *domain.User) {
		u.PasswordHash = hash
		u.ResetToken = nil
		u.ResetTokenExpiry = nil
	})
}

func (r *stubUserRepo) SetResetToken(_ context.Context, id uint, tokenHash string, expiry time.Time) error {
	return r.mutate(id, func(u *domain.User) {
		u.ResetToken = &tokenHash
		u.ResetTokenExpiry = &expiry
	})
}

func (r *stubUserRepo) SetRememberToken(_ context.Context, id uint, token *string) error {
	return r.mutate(id, func(u *domain.User) { u.RememberToken = token })
}

func (r *stubUserRepo) UpdateSubscription(_ context.Context, id uint, s domain.SubscriptionUpdate) error {
	return r.mutate(id, func(u *domain.User) {
		if s.CustomerID != nil {
			u.StripeCustomerID = s.CustomerID
		}
		if s.SubscriptionID != nil {
			u.StripeSubscriptionID = s.SubscriptionID
		}
		if s.Plan != nil {
			u.SubscriptionPlan = *s.Plan
		}
		if s.Status != nil {
			u.SubscriptionStatus = *s.Status
		}
		if s.PeriodStart != nil {
			u.SubscriptionPeriodStart = s.PeriodStart
		}
		if s.PeriodEnd != nil {
			u.SubscriptionPeriodEnd = s.PeriodEnd
		}
	})
}

type stubStaffRepo struct {
	members map[string]*domain.StaffMember
}

func newStubStaffRepo() *stubStaffRepo {
	return &stubStaffRepo{members: make(map[string]*domain.StaffMember)}
}

func (r *stubStaffRepo) Create(_ context.Context, m *domain.StaffMember) error {
	for _, existing := range r.members {
		if existing.Email == m.Email {
			return domain.ErrConflict
		}
	}
	if m.ID == "" {
		_ = m.BeforeCreate(nil)
	}
	clone := *m
	r.members[m.ID] = &clone
	return nil
}

func (r *stubStaffRepo) Update(_ context.Context, m *domain.StaffMember) error {
	if _, ok := r.members[m.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *m
	r.members[m.ID] = &clone
	return nil
}

func (r *stubStaffRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.members[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *stubStaffRepo) FindByID(_ context.Context, id string) (*domain.StaffMember, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *stubStaffRepo) FindByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	for _, m := range r.members {
		if m.Email == email {
			clone := *m
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubStaffRepo) List(_ context.Context, activeOnly bool) ([]domain.StaffMember, error) {
	out := []domain.StaffMember{}
	for _, m := range r.members {
		if activeOnly && !m.Active {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type stubRevocation struct {
	revoked map[string]time.Time
}

func (s *stubRevocation) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if s.revoked == nil {
		s.revoked = map[string]time.Time{}
	}
	s.revoked[tokenID] = until
	return nil
}

func (s *stubRevocation) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := s.revoked[tokenID]
	return ok, nil
}

type sentMail struct {
	to, subject, body string
}

type stubMailer struct {
	sent []sentMail
	err  error
}

func (m *stubMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to, subject, body})
	return m.err
}
