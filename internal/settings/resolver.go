package settings

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

// Resolver resolves named settings with a two-tier lookup: the period-scoped
// row shadows the global default when a period is given.
type Resolver struct {
	source domain.SettingSource
}

func NewResolver(source domain.SettingSource) *Resolver {
	return &Resolver{source: source}
}

// Value returns the effective setting for key.
func (r *Resolver) Value(ctx context.Context, key string, periodID uuid.NullUUID) (*domain.Setting, error) {
	if periodID.Valid {
		s, err := r.source.Get(ctx, key, periodID)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, domain.ErrSettingNotFound) {
			return nil, err
		}
	}

	s, err := r.source.Get(ctx, key, uuid.NullUUID{})
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", key, err)
	}
	return s, nil
}

func (r *Resolver) Float(ctx context.Context, key string, periodID uuid.NullUUID) (float64, error) {
	s, err := r.Value(ctx, key, periodID)
	if err != nil {
		return 0, err
	}
	return parseNumber(s.Value)
}

// Int reads a Number setting and rejects fractional values.
func (r *Resolver) Int(ctx context.Context, key string, periodID uuid.NullUUID) (int, error) {
	f, err := r.Float(ctx, key, periodID)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be a whole number", domain.ErrInvalidSettingValue, key)
	}
	return int(f), nil
}

func (r *Resolver) Bool(ctx context.Context, key string, periodID uuid.NullUUID) (bool, error) {
	s, err := r.Value(ctx, key, periodID)
	if err != nil {
		return false, err
	}
	return parseBool(s.Value)
}

func (r *Resolver) List(ctx context.Context, key string, periodID uuid.NullUUID) ([]string, error) {
	s, err := r.Value(ctx, key, periodID)
	if err != nil {
		return nil, err
	}
	return parseList(s.Value), nil
}

// AllowedValues returns the ascending score scale quantifiers may use.
func (r *Resolver) AllowedValues(ctx context.Context, periodID uuid.NullUUID) ([]float64, error) {
	s, err := r.Value(ctx, domain.KeyAllowedValues, periodID)
	if err != nil {
		return nil, err
	}
	return ParseAllowedValues(s.Value)
}

// QuantifyConfig is the set of values the quantification engine reads for a period.
type QuantifyConfig struct {
	QuantifiersPerReceiver int
	PraisePerQuantifier    int
	DuplicatePercentage    float64
	AllowedValues          []float64
	ReceiverPseudonyms     bool
}

// QuantifyConfig reads every engine setting for the period in one call.
func (r *Resolver) QuantifyConfig(ctx context.Context, periodID uuid.UUID) (QuantifyConfig, error) {
	scope := uuid.NullUUID{UUID: periodID, Valid: true}
	var cfg QuantifyConfig
	var err error

	if cfg.QuantifiersPerReceiver, err = r.Int(ctx, domain.KeyQuantifiersPerReceiver, scope); err != nil {
		return cfg, err
	}
	if cfg.QuantifiersPerReceiver < 1 {
		return cfg, fmt.Errorf("%w: %s must be at least 1", domain.ErrInvalidSettingValue, domain.KeyQuantifiersPerReceiver)
	}
	if cfg.PraisePerQuantifier, err = r.Int(ctx, domain.KeyPraisePerQuantifier, scope); err != nil {
		return cfg, err
	}
	if cfg.DuplicatePercentage, err = r.Float(ctx, domain.KeyDuplicatePraisePercentage, scope); err != nil {
		return cfg, err
	}
	if cfg.AllowedValues, err = r.AllowedValues(ctx, scope); err != nil {
		return cfg, err
	}
	if cfg.ReceiverPseudonyms, err = r.Bool(ctx, domain.KeyReceiverPseudonyms, scope); err != nil {
		return cfg, err
	}
	return cfg, nil
}
