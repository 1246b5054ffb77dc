package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/saucecodee/praise/internal/domain"
	"github.com/saucecodee/praise/internal/quantify"
	"github.com/saucecodee/praise/internal/settings"
	"golang.org/x/sync/singleflight"
)

// Repositories bundles the storage contracts the service orchestrates.
type Repositories struct {
	Periods         domain.PeriodRepository
	Praise          domain.PraiseRepository
	Quantifications domain.QuantificationRepository
	Settings        domain.SettingRepository
	Users           domain.UserRepository
}

// Metrics records engine events. A nil Metrics disables recording.
type Metrics interface {
	PeriodTransition(target domain.PeriodStatus, result string)
	QuantificationSubmitted(kind domain.OutcomeKind)
	AssignmentDuration(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) PeriodTransition(domain.PeriodStatus, string) {}
func (nopMetrics) QuantificationSubmitted(domain.OutcomeKind)  {}
func (nopMetrics) AssignmentDuration(time.Duration)            {}

// Service is the application layer. It loads consistent snapshots from the
// repositories, runs the pure engine over them and writes results back.
type Service struct {
	periods         domain.PeriodRepository
	praise          domain.PraiseRepository
	quantifications domain.QuantificationRepository
	settingsRepo    domain.SettingRepository
	users           domain.UserRepository
	resolver        *settings.Resolver
	invalidator     domain.SettingCacheInvalidator
	locker          domain.PeriodLocker
	metrics         Metrics
	clock           clockwork.Clock
	detailsGroup    singleflight.Group
}

// Option customises a Service.
type Option func(*Service)

// WithSettingSource reads settings through source (typically a cache) instead
// of the repository.
func WithSettingSource(source domain.SettingSource) Option {
	return func(s *Service) { s.resolver = settings.NewResolver(source) }
}

// WithSettingInvalidator drops cached settings after every write.
func WithSettingInvalidator(inv domain.SettingCacheInvalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// WithPeriodLocker serialises period transitions across instances.
func WithPeriodLocker(l domain.PeriodLocker) Option {
	return func(s *Service) { s.locker = l }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewService(repos Repositories, clock clockwork.Clock, opts ...Option) *Service {
	s := &Service{
		periods:         repos.Periods,
		praise:          repos.Praise,
		quantifications: repos.Quantifications,
		settingsRepo:    repos.Settings,
		users:           repos.Users,
		resolver:        settings.NewResolver(repos.Settings),
		metrics:         nopMetrics{},
		clock:           clock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// periodSnapshot is everything the engine needs about one period, read once.
type periodSnapshot struct {
	period *domain.Period
	window domain.Window
	praise []domain.Praise
}

func (s *Service) window(ctx context.Context, p *domain.Period) (domain.Window, error) {
	w := domain.Window{End: p.EndDate}
	prev, err := s.periods.Previous(ctx, p.ID)
	switch {
	case err == nil:
		w.Start = prev.EndDate
	case !errors.Is(err, domain.ErrPeriodNotFound):
		return w, fmt.Errorf("failed to resolve period window: %w", err)
	}
	return w, nil
}

func (s *Service) snapshot(ctx context.Context, periodID uuid.UUID) (*periodSnapshot, error) {
	p, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	w, err := s.window(ctx, p)
	if err != nil {
		return nil, err
	}
	praise, err := s.praise.ListByWindow(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("failed to load period praise: %w", err)
	}
	return &periodSnapshot{period: p, window: w, praise: praise}, nil
}

// reduce runs the score reducer over the snapshot with the period's percentage.
func (s *Service) reduce(ctx context.Context, snap *periodSnapshot) (*quantify.Result, error) {
	pct, err := s.resolver.Float(ctx, domain.KeyDuplicatePraisePercentage, domain.ValidID(snap.period.ID))
	if err != nil {
		return nil, err
	}
	return quantify.Reduce(snap.praise, pct)
}

// lock takes the optional cross-instance transition lock.
func (s *Service) lock(ctx context.Context, periodID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Lock(ctx, periodID)
	if err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
		// The status guard in the repository still rejects a second transition.
		slog.WarnContext(ctx, "Period lock unavailable, relying on status guard", "period_id", periodID.String(), "error", err)
		return func() {}, nil
	}
	return release, err
}

func (s *Service) isAdmin(ctx context.Context, userID uuid.UUID) bool {
	if userID == uuid.Nil {
		return false
	}
	ok, err := s.HasRole(ctx, userID, domain.RoleAdmin)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			slog.Warn("Role lookup failed, treating caller as non-admin", "user_id", userID.String(), "error", err)
		}
		return false
	}
	return ok
}
