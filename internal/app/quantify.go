package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
	"github.com/saucecodee/praise/internal/quantify"
)

// SubmitQuantification records one quantifier's outcome for one praise. Only
// the caller's own row changes; resubmission overwrites it while the period
// is quantifying.
func (s *Service) SubmitQuantification(ctx context.Context, praiseID, quantifierID uuid.UUID, outcome domain.Outcome) (*domain.Quantification, error) {
	kind, err := outcome.Kind()
	if err != nil {
		return nil, err
	}

	p, err := s.praise.GetByID(ctx, praiseID)
	if err != nil {
		return nil, err
	}
	period, err := s.periods.GetByDate(ctx, p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if period.Status != domain.PeriodQuantify {
		return nil, domain.ErrPeriodNotQuantifying
	}

	allowed, err := s.resolver.AllowedValues(ctx, domain.ValidID(period.ID))
	if err != nil {
		return nil, err
	}

	var snapshot []domain.Praise
	var check *domain.DuplicateCheck
	if kind == domain.OutcomeDuplicate {
		snap, err := s.snapshot(ctx, period.ID)
		if err != nil {
			return nil, err
		}
		snapshot = snap.praise

		// The snapshot above may be stale by the time the row is written, so
		// the repository repeats the cycle check under its write lock.
		target := outcome.DuplicateOf.UUID
		check = &domain.DuplicateCheck{
			Window: snap.window,
			Validate: func(receiverPraise []domain.Praise) error {
				return quantify.ValidateDuplicateTarget(receiverPraise, praiseID, target)
			},
		}
	}
	if err := quantify.ValidateOutcome(snapshot, praiseID, outcome, allowed); err != nil {
		return nil, err
	}

	q, err := s.quantifications.Submit(ctx, period.ID, praiseID, quantifierID, outcome, check)
	if err != nil {
		return nil, err
	}

	s.metrics.QuantificationSubmitted(kind)
	slog.Debug("Quantification submitted",
		"period_id", period.ID.String(),
		"praise_id", praiseID.String(),
		"quantifier_id", quantifierID.String(),
		"outcome", kind.String())
	return q, nil
}

// AssignedPraise is a praise as shown to its quantifier: only their own
// quantification is included, and the receiver may be hidden behind a
// pseudonym.
type AssignedPraise struct {
	Praise            domain.Praise
	ReceiverPseudonym string
}

// ListQuantifierPraise returns the praise assigned to quantifierID in the period.
func (s *Service) ListQuantifierPraise(ctx context.Context, periodID, quantifierID uuid.UUID) ([]AssignedPraise, error) {
	snap, err := s.snapshot(ctx, periodID)
	if err != nil {
		return nil, err
	}
	pseudonyms, err := s.resolver.Bool(ctx, domain.KeyReceiverPseudonyms, domain.ValidID(periodID))
	if err != nil {
		return nil, err
	}
	var names map[uuid.UUID]string
	if pseudonyms {
		names = quantify.Pseudonyms(periodID, snap.praise)
	}

	var out []AssignedPraise
	for _, p := range snap.praise {
		var own []domain.Quantification
		for _, q := range p.Quantifications {
			if q.QuantifierID == quantifierID {
				own = append(own, q)
			}
		}
		if len(own) == 0 {
			continue
		}

		p.Quantifications = own
		p.Score = nil
		ap := AssignedPraise{Praise: p}
		if pseudonyms {
			ap.ReceiverPseudonym = names[p.ReceiverID]
			ap.Praise.ReceiverID = uuid.Nil
		}
		out = append(out, ap)
	}
	return out, nil
}

// hidesReceivers reports whether callerID must not see the receivers of the
// praise assigned to them: the period is quantifying with pseudonyms on and
// the caller is not an admin.
func (s *Service) hidesReceivers(ctx context.Context, period *domain.Period, callerID uuid.UUID) (bool, error) {
	if period.Status != domain.PeriodQuantify || s.isAdmin(ctx, callerID) {
		return false, nil
	}
	return s.resolver.Bool(ctx, domain.KeyReceiverPseudonyms, domain.ValidID(period.ID))
}

func assignedTo(p domain.Praise, quantifierID uuid.UUID) bool {
	for _, q := range p.Quantifications {
		if q.QuantifierID == quantifierID {
			return true
		}
	}
	return false
}
