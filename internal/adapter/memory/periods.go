package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
	"github.com/saucecodee/praise/internal/quantify"
)

type PeriodRepo struct{ s *Store }

func (r *PeriodRepo) Create(_ context.Context, np domain.NewPeriod) (*domain.Period, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.periods {
		if !np.EndDate.After(p.EndDate) {
			return nil, domain.ErrPeriodOverlap
		}
	}

	now := r.s.now()
	p := &domain.Period{
		ID:        uuid.New(),
		Name:      np.Name,
		Status:    domain.PeriodOpen,
		EndDate:   np.EndDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.periods[p.ID] = p

	for _, setting := range np.Settings {
		setting.ID = uuid.New()
		setting.PeriodID = domain.ValidID(p.ID)
		r.s.settings[settingKey{setting.Key, setting.PeriodID}] = &setting
	}

	cp := *p
	return &cp, nil
}

func (r *PeriodRepo) GetByID(_ context.Context, periodID uuid.UUID) (*domain.Period, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.periods[periodID]
	if !ok {
		return nil, domain.ErrPeriodNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PeriodRepo) List(_ context.Context) ([]domain.Period, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Period, 0, len(r.s.periods))
	for _, p := range r.s.periods {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b domain.Period) int { return b.EndDate.Compare(a.EndDate) })
	return out, nil
}

func (r *PeriodRepo) GetByDate(_ context.Context, t time.Time) (*domain.Period, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *domain.Period
	for _, p := range r.s.periods {
		if t.After(p.EndDate) {
			continue
		}
		if found == nil || p.EndDate.Before(found.EndDate) {
			found = p
		}
	}
	if found == nil {
		return nil, domain.ErrPeriodNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *PeriodRepo) Previous(_ context.Context, periodID uuid.UUID) (*domain.Period, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.periods[periodID]
	if !ok {
		return nil, domain.ErrPeriodNotFound
	}

	var prev *domain.Period
	for _, other := range r.s.periods {
		if other.EndDate.Before(p.EndDate) && (prev == nil || other.EndDate.After(prev.EndDate)) {
			prev = other
		}
	}
	if prev == nil {
		return nil, domain.ErrPeriodNotFound
	}
	cp := *prev
	return &cp, nil
}

func (r *PeriodRepo) Update(_ context.Context, periodID uuid.UUID, name string, endDate time.Time) (*domain.Period, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.periods[periodID]
	if !ok {
		return nil, domain.ErrPeriodNotFound
	}
	if p.Status != domain.PeriodOpen {
		return nil, domain.ErrPeriodNotOpen
	}

	// The new end date must stay between the neighbouring periods.
	for _, other := range r.s.periods {
		if other.ID == p.ID {
			continue
		}
		before := other.EndDate.Before(p.EndDate)
		if before && !endDate.After(other.EndDate) {
			return nil, domain.ErrPeriodOverlap
		}
		if !before && !endDate.Before(other.EndDate) {
			return nil, domain.ErrPeriodOverlap
		}
	}

	p.Name = name
	p.EndDate = endDate
	p.UpdatedAt = r.s.now()
	cp := *p
	return &cp, nil
}

func (r *PeriodRepo) StartQuantify(_ context.Context, periodID uuid.UUID, window domain.Window, assignments []domain.Quantification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.periods[periodID]
	if !ok {
		return domain.ErrPeriodNotFound
	}
	if !p.Status.CanTransitionTo(domain.PeriodQuantify) {
		return domain.ErrInvalidTransition
	}

	var ids []uuid.UUID
	for id, pr := range r.s.praise {
		if window.Contains(pr.CreatedAt) {
			ids = append(ids, id)
		}
	}
	if !domain.AssignmentsCover(assignments, ids) {
		return domain.ErrPeriodPraiseChanged
	}

	// Rows left over from an aborted attempt are discarded.
	for k := range r.s.quantifications {
		if pr, ok := r.s.praise[k.PraiseID]; ok && window.Contains(pr.CreatedAt) {
			delete(r.s.quantifications, k)
		}
	}

	now := r.s.now()
	for _, a := range assignments {
		q := domain.Quantification{PraiseID: a.PraiseID, QuantifierID: a.QuantifierID, CreatedAt: now, UpdatedAt: now}
		r.s.quantifications[quantKey{a.PraiseID, a.QuantifierID}] = &q
	}

	p.Status = domain.PeriodQuantify
	p.UpdatedAt = now
	return nil
}

func (r *PeriodRepo) Close(_ context.Context, periodID uuid.UUID, window domain.Window) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.periods[periodID]
	if !ok {
		return domain.ErrPeriodNotFound
	}
	if !p.Status.CanTransitionTo(domain.PeriodClosed) {
		return domain.ErrInvalidTransition
	}

	if ids := quantify.UnfinishedQuantifiers(r.s.windowLocked(window)); len(ids) > 0 {
		return &domain.IncompleteError{QuantifierIDs: ids}
	}

	p.Status = domain.PeriodClosed
	p.UpdatedAt = r.s.now()
	return nil
}
