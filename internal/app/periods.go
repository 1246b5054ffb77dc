package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/analytics"
	"github.com/saucecodee/praise/internal/domain"
	"github.com/saucecodee/praise/internal/quantify"
)

// CreatePeriod opens a new period ending at endDate and copies the current
// global engine settings into its scope.
func (s *Service) CreatePeriod(ctx context.Context, name string, endDate time.Time) (*domain.Period, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: period name is required", domain.ErrInvalidInput)
	}
	if endDate.IsZero() {
		return nil, fmt.Errorf("%w: period end date is required", domain.ErrInvalidInput)
	}

	var scoped []domain.Setting
	for _, key := range domain.PeriodSettingKeys {
		global, err := s.settingsRepo.Get(ctx, key, uuid.NullUUID{})
		if errors.Is(err, domain.ErrSettingNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
		}
		scoped = append(scoped, *global)
	}

	p, err := s.periods.Create(ctx, domain.NewPeriod{Name: name, EndDate: endDate.UTC(), Settings: scoped})
	if err != nil {
		return nil, err
	}

	slog.Info("Period created", "period_id", p.ID.String(), "end_date", p.EndDate)
	return p, nil
}

// UpdatePeriod renames or moves the end date of an OPEN period.
func (s *Service) UpdatePeriod(ctx context.Context, periodID uuid.UUID, name string, endDate time.Time) (*domain.Period, error) {
	name = strings.TrimSpace(name)
	if name == "" || endDate.IsZero() {
		return nil, fmt.Errorf("%w: period name and end date are required", domain.ErrInvalidInput)
	}
	return s.periods.Update(ctx, periodID, name, endDate.UTC())
}

func (s *Service) ListPeriods(ctx context.Context) ([]domain.Period, error) {
	return s.periods.List(ctx)
}

func (s *Service) GetPeriod(ctx context.Context, periodID uuid.UUID) (*domain.Period, error) {
	return s.periods.GetByID(ctx, periodID)
}

// VerifyPoolSize is the pre-flight check for AssignQuantifiers.
func (s *Service) VerifyPoolSize(ctx context.Context, periodID uuid.UUID) (domain.PoolSize, error) {
	snap, err := s.snapshot(ctx, periodID)
	if err != nil {
		return domain.PoolSize{}, err
	}
	cfg, pool, err := s.assignInputs(ctx, periodID)
	if err != nil {
		return domain.PoolSize{}, err
	}
	return quantify.VerifyPoolSize(snap.praise, pool, cfg), nil
}

// AssignQuantifiers moves the period OPEN -> QUANTIFY and creates every
// quantification row. Either both happen or neither does.
func (s *Service) AssignQuantifiers(ctx context.Context, periodID uuid.UUID) (err error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.PeriodTransition(domain.PeriodQuantify, resultLabel(err))
	}()

	release, err := s.lock(ctx, periodID)
	if err != nil {
		return err
	}
	defer release()

	for attempt := 1; ; attempt++ {
		praiseCount, poolSize, rowCount, err := s.assignOnce(ctx, periodID)
		if errors.Is(err, domain.ErrPeriodPraiseChanged) && attempt < assignAttempts {
			slog.Info("Praise arrived during assignment, retrying", "period_id", periodID.String(), "attempt", attempt)
			continue
		}
		if err != nil {
			return err
		}

		s.metrics.AssignmentDuration(s.clock.Since(start))
		slog.Info("Quantifiers assigned",
			"period_id", periodID.String(),
			"praise", praiseCount,
			"quantifiers", poolSize,
			"rows", rowCount)
		return nil
	}
}

// assignAttempts bounds how often assignment restarts when praise lands in
// the period between the snapshot and the status flip.
const assignAttempts = 3

func (s *Service) assignOnce(ctx context.Context, periodID uuid.UUID) (praiseCount, poolSize, rowCount int, err error) {
	snap, err := s.snapshot(ctx, periodID)
	if err != nil {
		return 0, 0, 0, err
	}
	if !snap.period.Status.CanTransitionTo(domain.PeriodQuantify) {
		return 0, 0, 0, fmt.Errorf("%w: period is %s", domain.ErrInvalidTransition, snap.period.Status)
	}

	cfg, pool, err := s.assignInputs(ctx, periodID)
	if err != nil {
		return 0, 0, 0, err
	}

	rows, err := quantify.Assign(snap.praise, pool, cfg)
	if err != nil {
		slog.Warn("Quantifier assignment failed", "period_id", periodID.String(), "error", err)
		return 0, 0, 0, err
	}

	if err := s.periods.StartQuantify(ctx, periodID, snap.window, rows); err != nil {
		return 0, 0, 0, err
	}
	return len(snap.praise), len(pool), len(rows), nil
}

func (s *Service) assignInputs(ctx context.Context, periodID uuid.UUID) (quantify.AssignConfig, []domain.User, error) {
	cfg, err := s.resolver.QuantifyConfig(ctx, periodID)
	if err != nil {
		return quantify.AssignConfig{}, nil, err
	}
	users, err := s.users.ListByRole(ctx, domain.RoleQuantifier)
	if err != nil {
		return quantify.AssignConfig{}, nil, fmt.Errorf("failed to list quantifiers: %w", err)
	}
	return quantify.AssignConfig{
		QuantifiersPerReceiver: cfg.QuantifiersPerReceiver,
		PraisePerQuantifier:    cfg.PraisePerQuantifier,
	}, quantify.EligibleQuantifiers(users), nil
}

// ClosePeriod moves the period QUANTIFY -> CLOSED once every quantification is
// finished, then stores the realized score of each praise.
func (s *Service) ClosePeriod(ctx context.Context, periodID uuid.UUID) (err error) {
	defer func() {
		s.metrics.PeriodTransition(domain.PeriodClosed, resultLabel(err))
	}()

	release, err := s.lock(ctx, periodID)
	if err != nil {
		return err
	}
	defer release()

	snap, err := s.snapshot(ctx, periodID)
	if err != nil {
		return err
	}
	if !snap.period.Status.CanTransitionTo(domain.PeriodClosed) {
		return fmt.Errorf("%w: period is %s", domain.ErrInvalidTransition, snap.period.Status)
	}
	// A malformed duplicate graph must block the close rather than surface later.
	if _, err := s.reduce(ctx, snap); err != nil {
		return err
	}

	if err := s.periods.Close(ctx, periodID, snap.window); err != nil {
		return err
	}
	slog.Info("Period closed", "period_id", periodID.String())

	// No writes are accepted after close, so this snapshot is final.
	snap, err = s.snapshot(ctx, periodID)
	if err != nil {
		return err
	}
	res, err := s.reduce(ctx, snap)
	if err != nil {
		return err
	}
	if err := s.praise.UpdateScores(ctx, res.Realized); err != nil {
		return fmt.Errorf("failed to store realized scores: %w", err)
	}
	return nil
}

// GetPeriodDetails returns the detail view, redacted unless callerID is an
// admin or the period has left QUANTIFY. Concurrent calls for one period
// share one computation.
func (s *Service) GetPeriodDetails(ctx context.Context, periodID, callerID uuid.UUID) (*domain.PeriodDetails, error) {
	admin := s.isAdmin(ctx, callerID)

	// Waiting callers share the result, so one caller's cancellation must not
	// fail the others.
	sctx := context.WithoutCancel(ctx)
	v, err, _ := s.detailsGroup.Do(periodID.String(), func() (any, error) {
		snap, err := s.snapshot(sctx, periodID)
		if err != nil {
			return nil, err
		}
		res, err := s.reduce(sctx, snap)
		if err != nil {
			return nil, err
		}
		return quantify.BuildDetails(*snap.period, snap.praise, res), nil
	})
	if err != nil {
		return nil, err
	}

	details := quantify.RedactDetails(v.(domain.PeriodDetails), admin)
	return &details, nil
}

// ListReceiverPraise returns the period's praise for one receiver with realized
// scores, redacted under the same rule as the detail view. Under receiver
// pseudonyms a quantifier does not see the praise assigned to them here.
func (s *Service) ListReceiverPraise(ctx context.Context, periodID, receiverID, callerID uuid.UUID) ([]domain.Praise, error) {
	snap, err := s.snapshot(ctx, periodID)
	if err != nil {
		return nil, err
	}
	res, err := s.reduce(ctx, snap)
	if err != nil {
		return nil, err
	}

	hide, err := s.hidesReceivers(ctx, snap.period, callerID)
	if err != nil {
		return nil, err
	}

	var out []domain.Praise
	for _, p := range quantify.WithScores(snap.praise, res) {
		if p.ReceiverID != receiverID || (hide && assignedTo(p, callerID)) {
			continue
		}
		out = append(out, p)
	}
	return quantify.RedactPraise(snap.period.Status, out, s.isAdmin(ctx, callerID)), nil
}

// PeriodAnalytics reports statistics for a CLOSED period.
func (s *Service) PeriodAnalytics(ctx context.Context, periodID uuid.UUID) (*analytics.Report, error) {
	snap, err := s.snapshot(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if snap.period.Status != domain.PeriodClosed {
		return nil, domain.ErrPeriodNotClosed
	}
	res, err := s.reduce(ctx, snap)
	if err != nil {
		return nil, err
	}
	allowed, err := s.resolver.AllowedValues(ctx, domain.ValidID(periodID))
	if err != nil {
		return nil, err
	}

	rep := analytics.Build(snap.praise, res, allowed)
	return &rep, nil
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
