package service

import (
	"context"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

// UserService implements account reads and profile edits.
type UserService struct {
	repo ports.UserRepository
}

func NewUserService(repo ports.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint, p domain.ProfileUpdate) (*domain.User, error) {
	return s.repo.UpdateProfile(ctx, id, p)
}

func (s *UserService) UpdateRole(ctx context.Context, id uint, role string) (*domain.User, error) {
	switch role {
	case domain.RoleUser, domain.RoleEditor, domain.RoleAdmin:
	default:
		return nil, domain.ErrInvalidRole
	}
	return s.repo.UpdateRole(ctx, id, role)
}
