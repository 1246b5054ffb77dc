package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PeriodStatus is the lifecycle state of a period. It only moves forward:
// OPEN -> QUANTIFY -> CLOSED.
type PeriodStatus string

const (
	PeriodOpen     PeriodStatus = "OPEN"
	PeriodQuantify PeriodStatus = "QUANTIFY"
	PeriodClosed   PeriodStatus = "CLOSED"
)

// ParsePeriodStatus converts a stored status string, reporting whether it is known.
func ParsePeriodStatus(s string) (PeriodStatus, bool) {
	switch PeriodStatus(s) {
	case PeriodOpen, PeriodQuantify, PeriodClosed:
		return PeriodStatus(s), true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether next is the single legal successor of s.
func (s PeriodStatus) CanTransitionTo(next PeriodStatus) bool {
	switch s {
	case PeriodOpen:
		return next == PeriodQuantify
	case PeriodQuantify:
		return next == PeriodClosed
	default:
		return false
	}
}

type Period struct {
	ID        uuid.UUID
	Name      string
	Status    PeriodStatus
	EndDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Window is the half-open praise window (Start, End] of a period.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return t.After(w.Start) && !t.After(w.End)
}

// NewPeriod bundles everything written when a period is created.
// Settings are the period-scoped copies of the global defaults.
type NewPeriod struct {
	Name     string
	EndDate  time.Time
	Settings []Setting
}

type PeriodRepository interface {
	Create(ctx context.Context, p NewPeriod) (*Period, error)
	GetByID(ctx context.Context, periodID uuid.UUID) (*Period, error)
	List(ctx context.Context) ([]Period, error)
	// GetByDate returns the period whose window contains t.
	GetByDate(ctx context.Context, t time.Time) (*Period, error)
	// Previous returns the period ending right before periodID, or ErrPeriodNotFound.
	Previous(ctx context.Context, periodID uuid.UUID) (*Period, error)
	// Update changes name and end date; fails with ErrPeriodNotOpen unless the period is OPEN.
	Update(ctx context.Context, periodID uuid.UUID, name string, endDate time.Time) (*Period, error)

	// StartQuantify atomically moves the period OPEN -> QUANTIFY and writes every
	// assignment row. Nothing is written unless both succeed. It fails with
	// ErrPeriodPraiseChanged when the praise in window differs from the praise
	// the assignments cover.
	StartQuantify(ctx context.Context, periodID uuid.UUID, window Window, assignments []Quantification) error
	// Close atomically moves the period QUANTIFY -> CLOSED once every quantification
	// in the window is finished, else returns an *IncompleteError.
	Close(ctx context.Context, periodID uuid.UUID, window Window) error
}

// PoolSize is the pre-flight view of quantifier pool readiness.
type PoolSize struct {
	QuantifierPoolSize int
	RequiredPoolSize   int
}

// Sufficient reports whether the pool can cover the required size.
func (p PoolSize) Sufficient() bool {
	return p.QuantifierPoolSize >= p.RequiredPoolSize
}

// AssignmentsCover reports whether assignments cover exactly the praise in ids.
func AssignmentsCover(assignments []Quantification, ids []uuid.UUID) bool {
	covered := make(map[uuid.UUID]struct{}, len(ids))
	for _, a := range assignments {
		covered[a.PraiseID] = struct{}{}
	}
	if len(covered) != len(ids) {
		return false
	}
	for _, id := range ids {
		if _, ok := covered[id]; !ok {
			return false
		}
	}
	return true
}

// PeriodLocker serialises state transitions of one period across instances.
type PeriodLocker interface {
	// Lock returns a release func, or ErrInvalidTransition when another
	// transition for the period is already running.
	Lock(ctx context.Context, periodID uuid.UUID) (release func(), err error)
}
