package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
	"github.com/saucecodee/praise/internal/settings"
)

// SeedSettings inserts the default global settings that are still missing.
func (s *Service) SeedSettings(ctx context.Context) error {
	return settings.Seed(ctx, s.settingsRepo)
}

func (s *Service) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	return s.settingsRepo.List(ctx, uuid.NullUUID{})
}

func (s *Service) ListPeriodSettings(ctx context.Context, periodID uuid.UUID) ([]domain.Setting, error) {
	if _, err := s.periods.GetByID(ctx, periodID); err != nil {
		return nil, err
	}
	return s.settingsRepo.List(ctx, domain.ValidID(periodID))
}

func (s *Service) GetPeriodSetting(ctx context.Context, periodID uuid.UUID, key string) (*domain.Setting, error) {
	return s.resolver.Value(ctx, key, domain.ValidID(periodID))
}

// SetSetting changes a global setting.
func (s *Service) SetSetting(ctx context.Context, key, value string) (*domain.Setting, error) {
	return s.setValue(ctx, key, uuid.NullUUID{}, value)
}

// SetPeriodSetting changes a period-scoped setting while the period is OPEN.
func (s *Service) SetPeriodSetting(ctx context.Context, periodID uuid.UUID, key, value string) (*domain.Setting, error) {
	p, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PeriodOpen {
		return nil, domain.ErrPeriodNotOpen
	}
	return s.setValue(ctx, key, domain.ValidID(periodID), value)
}

func (s *Service) setValue(ctx context.Context, key string, scope uuid.NullUUID, value string) (*domain.Setting, error) {
	current, err := s.settingsRepo.Get(ctx, key, scope)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(current.Type, value); err != nil {
		return nil, err
	}
	if key == domain.KeyAllowedValues {
		if _, err := settings.ParseAllowedValues(value); err != nil {
			return nil, err
		}
	}

	updated, err := s.settingsRepo.SetValue(ctx, key, scope, value)
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateSetting(ctx, key, scope); err != nil {
			slog.Warn("Setting cache invalidation failed", "key", key, "error", err)
		}
	}
	slog.Info("Setting updated", "key", key, "period_id", scopeString(scope))
	return updated, nil
}

func scopeString(scope uuid.NullUUID) string {
	if !scope.Valid {
		return "global"
	}
	return scope.UUID.String()
}
