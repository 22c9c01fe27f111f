package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

// StaffService implements back-office operator management.
type StaffService struct {
	repo ports.StaffRepository
}

func NewStaffService(repo ports.StaffRepository) *StaffService {
	return &StaffService{repo: repo}
}

func (s *StaffService) Create(ctx context.Context, in ports.StaffInput) (*domain.StaffMember, error) {
	if in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	role, err := staffRole(in.Role)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	m := &domain.StaffMember{
		Email:        normalizeEmail(in.Email),
		Name:         in.Name,
		PasswordHash: string(hash),
		Role:         role,
		Active:       in.Active,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, m.ID)
}

func (s *StaffService) Update(ctx context.Context, id string, in ports.StaffInput) (*domain.StaffMember, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := staffRole(in.Role)
	if err != nil {
		return nil, err
	}

	m.Email = normalizeEmail(in.Email)
	m.Name = in.Name
	m.Role = role
	m.Active = in.Active
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		m.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *StaffService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *StaffService) Get(ctx context.Context, id string) (*domain.StaffMember, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *StaffService) List(ctx context.Context) ([]domain.StaffMember, error) {
	return s.repo.List(ctx, false)
}

func staffRole(role string) (string, error) {
	switch role {
	case "":
		return domain.RoleEditor, nil
	case domain.RoleEditor, domain.RoleAdmin:
		return role, nil
	default:
		return "", domain.ErrInvalidRole
	}
}
