package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

func (s *Service) CreateUser(ctx context.Context, name string, roles []domain.Role) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: user name is required", domain.ErrInvalidInput)
	}
	return s.users.Create(ctx, name, roles)
}

func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// HasRole implements domain.IdentityProvider. Deactivated users hold no roles.
func (s *Service) HasRole(ctx context.Context, userID uuid.UUID, role domain.Role) (bool, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return !u.Deactivated && u.HasRole(role), nil
}

func (s *Service) AddRole(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.User, error) {
	u, err := s.users.AddRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	slog.Info("Role added", "user_id", userID.String(), "role", string(role))
	return u, nil
}

func (s *Service) RemoveRole(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.User, error) {
	u, err := s.users.RemoveRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	slog.Info("Role removed", "user_id", userID.String(), "role", string(role))
	return u, nil
}

func (s *Service) SetUserDeactivated(ctx context.Context, userID uuid.UUID, deactivated bool) error {
	return s.users.SetDeactivated(ctx, userID, deactivated)
}

// ListQuantifiers returns every user holding the QUANTIFIER role, active or not.
func (s *Service) ListQuantifiers(ctx context.Context) ([]domain.User, error) {
	return s.users.ListByRole(ctx, domain.RoleQuantifier)
}
