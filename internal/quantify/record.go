package quantify

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

// ValidateScore checks v against the allowed scale.
func ValidateScore(allowed []float64, v float64) error {
	if !slices.Contains(allowed, v) {
		return fmt.Errorf("%w: %v not in %v", domain.ErrInvalidScoreValue, v, allowed)
	}
	return nil
}

// ValidateOutcome runs every write-time check on a submission before it is
// stored. Assignment and period status are enforced by the store itself.
func ValidateOutcome(snapshot []domain.Praise, praiseID uuid.UUID, o domain.Outcome, allowed []float64) error {
	kind, err := o.Kind()
	if err != nil {
		return err
	}

	switch kind {
	case domain.OutcomeScore:
		return ValidateScore(allowed, *o.Score)
	case domain.OutcomeDuplicate:
		return ValidateDuplicateTarget(snapshot, praiseID, o.DuplicateOf.UUID)
	}
	return nil
}
