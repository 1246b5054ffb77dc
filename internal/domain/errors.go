package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrPeriodNotFound  = fmt.Errorf("period %w", ErrNotFound)
	ErrPraiseNotFound  = fmt.Errorf("praise %w", ErrNotFound)
	ErrSettingNotFound = fmt.Errorf("setting %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)

	ErrInvalidTransition          = errors.New("invalid period status transition")
	ErrQuantificationIncomplete   = errors.New("quantification incomplete")
	ErrInsufficientQuantifierPool = errors.New("insufficient quantifier pool")
	ErrNotAssigned                = errors.New("quantifier not assigned to praise")
	ErrInvalidScoreValue          = errors.New("score is not an allowed value")
	ErrInvalidDuplicateTarget     = errors.New("invalid duplicate praise target")
	ErrDuplicateCycleDetected     = errors.New("duplicate praise cycle detected")
	ErrPeriodNotQuantifying       = errors.New("period is not in quantify status")

	ErrPeriodNotOpen       = errors.New("period is not open")
	ErrPeriodNotClosed     = errors.New("period is not closed")
	ErrPeriodOverlap       = errors.New("period end date overlaps an existing period")
	ErrPeriodPraiseChanged = errors.New("period praise changed during assignment")
	ErrSelfPraise          = errors.New("self praise is not allowed")
	ErrInvalidSettingValue = errors.New("invalid setting value")
	ErrInvalidOutcome      = errors.New("exactly one quantification outcome must be given")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
)

// IncompleteError lists the quantifiers that still hold unfinished quantifications.
type IncompleteError struct {
	QuantifierIDs []uuid.UUID
}

func (e *IncompleteError) Error() string {
	ids := make([]string, len(e.QuantifierIDs))
	for i, id := range e.QuantifierIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%s: unfinished quantifiers [%s]", ErrQuantificationIncomplete, strings.Join(ids, ", "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrQuantificationIncomplete
}

// PoolSizeError reports a quantifier pool that cannot cover the period.
type PoolSizeError struct {
	PoolSize PoolSize
}

func (e *PoolSizeError) Error() string {
	return fmt.Sprintf("%s: have %d, need %d", ErrInsufficientQuantifierPool, e.PoolSize.QuantifierPoolSize, e.PoolSize.RequiredPoolSize)
}

func (e *PoolSizeError) Is(target error) bool {
	return target == ErrInsufficientQuantifierPool
}
