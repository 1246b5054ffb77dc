package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

type PraiseRepo struct{ s *Store }

func (r *PraiseRepo) Create(_ context.Context, np domain.NewPraise) (*domain.Praise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if np.PeriodID.Valid {
		period, ok := r.s.periods[np.PeriodID.UUID]
		if !ok {
			return nil, domain.ErrPeriodNotFound
		}
		if period.Status != domain.PeriodOpen {
			return nil, domain.ErrPeriodNotOpen
		}
	}

	p := &domain.Praise{
		ID:             uuid.New(),
		GiverID:        np.GiverID,
		ReceiverID:     np.ReceiverID,
		ForwarderID:    np.ForwarderID,
		Reason:         np.Reason,
		ReasonRealized: np.ReasonRealized,
		SourceID:       np.SourceID,
		SourceName:     np.SourceName,
		CreatedAt:      r.s.now(),
	}
	r.s.praise[p.ID] = p

	cp := r.s.praiseLocked(p)
	return &cp, nil
}

func (r *PraiseRepo) GetByID(_ context.Context, praiseID uuid.UUID) (*domain.Praise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.praise[praiseID]
	if !ok {
		return nil, domain.ErrPraiseNotFound
	}
	cp := r.s.praiseLocked(p)
	return &cp, nil
}

func (r *PraiseRepo) ListByWindow(_ context.Context, window domain.Window) ([]domain.Praise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.windowLocked(window), nil
}

func (r *PraiseRepo) UpdateScores(_ context.Context, scores map[uuid.UUID]float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, v := range scores {
		if p, ok := r.s.praise[id]; ok {
			score := v
			p.Score = &score
		}
	}
	return nil
}

type QuantificationRepo struct{ s *Store }

func (r *QuantificationRepo) Submit(_ context.Context, periodID, praiseID, quantifierID uuid.UUID, outcome domain.Outcome, check *domain.DuplicateCheck) (*domain.Quantification, error) {
	if _, err := outcome.Kind(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.periods[periodID]
	if !ok {
		return nil, domain.ErrPeriodNotFound
	}
	if p.Status != domain.PeriodQuantify {
		return nil, domain.ErrPeriodNotQuantifying
	}

	q, ok := r.s.quantifications[quantKey{praiseID, quantifierID}]
	if !ok {
		return nil, domain.ErrNotAssigned
	}
	if check != nil {
		target, ok := r.s.praise[praiseID]
		if !ok {
			return nil, domain.ErrPraiseNotFound
		}
		var receiverPraise []domain.Praise
		for _, wp := range r.s.windowLocked(check.Window) {
			if wp.ReceiverID == target.ReceiverID {
				receiverPraise = append(receiverPraise, wp)
			}
		}
		if err := check.Validate(receiverPraise); err != nil {
			return nil, err
		}
	}
	outcome.Apply(q)
	q.UpdatedAt = r.s.now()

	cp := copyQuantification(q)
	return &cp, nil
}
