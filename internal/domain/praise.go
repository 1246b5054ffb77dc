package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Praise is immutable once created, apart from its quantifications and the
// cached realized score written when its period closes.
type Praise struct {
	ID             uuid.UUID
	GiverID        uuid.UUID
	ReceiverID     uuid.UUID
	ForwarderID    uuid.NullUUID
	Reason         string
	ReasonRealized string
	SourceID       string
	SourceName     string
	CreatedAt      time.Time
	Score          *float64

	Quantifications []Quantification
}

// NewPraise is a single praise row to insert. The insert only succeeds while
// PeriodID is OPEN.
type NewPraise struct {
	// PeriodID is the period covering the creation time, if one exists yet.
	PeriodID       uuid.NullUUID
	GiverID        uuid.UUID
	ReceiverID     uuid.UUID
	ForwarderID    uuid.NullUUID
	Reason         string
	ReasonRealized string
	SourceID       string
	SourceName     string
}

// Quantification is one quantifier's judgement of one praise.
// At most one of Score, Dismissed and DuplicatePraiseID is active.
type Quantification struct {
	PraiseID          uuid.UUID
	QuantifierID      uuid.UUID
	Score             *float64
	Dismissed         bool
	DuplicatePraiseID uuid.NullUUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Finished reports whether the quantification holds a terminal outcome.
func (q Quantification) Finished() bool {
	return q.Score != nil || q.Dismissed || q.DuplicatePraiseID.Valid
}

// OutcomeKind classifies a quantification.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeScore
	OutcomeDismissed
	OutcomeDuplicate
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeScore:
		return "score"
	case OutcomeDismissed:
		return "dismissed"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "none"
	}
}

// Kind reports the active outcome of the quantification.
func (q Quantification) Kind() OutcomeKind {
	switch {
	case q.DuplicatePraiseID.Valid:
		return OutcomeDuplicate
	case q.Dismissed:
		return OutcomeDismissed
	case q.Score != nil:
		return OutcomeScore
	default:
		return OutcomeNone
	}
}

// Outcome is a quantifier's submission for one praise.
type Outcome struct {
	Score       *float64
	Dismissed   bool
	DuplicateOf uuid.NullUUID
}

func ScoreOutcome(v float64) Outcome { return Outcome{Score: &v} }

func DismissOutcome() Outcome { return Outcome{Dismissed: true} }

func DuplicateOutcome(praiseID uuid.UUID) Outcome {
	return Outcome{DuplicateOf: uuid.NullUUID{UUID: praiseID, Valid: true}}
}

// Kind validates that exactly one outcome is set and reports which.
func (o Outcome) Kind() (OutcomeKind, error) {
	set := 0
	kind := OutcomeNone
	if o.Score != nil {
		set++
		kind = OutcomeScore
	}
	if o.Dismissed {
		set++
		kind = OutcomeDismissed
	}
	if o.DuplicateOf.Valid {
		set++
		kind = OutcomeDuplicate
	}
	if set != 1 {
		return OutcomeNone, ErrInvalidOutcome
	}
	return kind, nil
}

// Apply overwrites q with the outcome, clearing the other outcome fields.
func (o Outcome) Apply(q *Quantification) {
	q.Score = nil
	q.Dismissed = false
	q.DuplicatePraiseID = uuid.NullUUID{}
	switch {
	case o.Score != nil:
		v := *o.Score
		q.Score = &v
	case o.Dismissed:
		q.Dismissed = true
	case o.DuplicateOf.Valid:
		q.DuplicatePraiseID = o.DuplicateOf
	}
}

type PraiseRepository interface {
	// Create returns ErrPeriodNotOpen when p.PeriodID has left OPEN. The status
	// check and the insert are atomic with respect to StartQuantify.
	Create(ctx context.Context, p NewPraise) (*Praise, error)
	GetByID(ctx context.Context, praiseID uuid.UUID) (*Praise, error)
	// ListByWindow returns every praise in the window with its quantifications,
	// read from one consistent snapshot.
	ListByWindow(ctx context.Context, window Window) ([]Praise, error)
	UpdateScores(ctx context.Context, scores map[uuid.UUID]float64) error
}

// DuplicateCheck re-validates a duplicate mark inside the write. Validate
// receives the receiver's praise in Window with their quantifications, read
// while no other duplicate mark for that receiver can commit.
type DuplicateCheck struct {
	Window   Window
	Validate func(receiverPraise []Praise) error
}

type QuantificationRepository interface {
	// Submit atomically overwrites the (praise, quantifier) row while the period is
	// QUANTIFY. Returns ErrNotAssigned when no row exists and ErrPeriodNotQuantifying
	// when the period left QUANTIFY. A non-nil check runs in the same write,
	// serialised per receiver.
	Submit(ctx context.Context, periodID, praiseID, quantifierID uuid.UUID, outcome Outcome, check *DuplicateCheck) (*Quantification, error)
}
