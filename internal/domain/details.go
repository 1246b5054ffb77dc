package domain

import "github.com/google/uuid"

// QuantifierProgress counts one quantifier's assigned and finished rows in a period.
type QuantifierProgress struct {
	QuantifierID  uuid.UUID
	FinishedCount int
	PraiseCount   int
}

// ReceiverSummary aggregates the praise addressed to one receiver.
// Quantifications holds each praise's raw entries, one slice per praise.
type ReceiverSummary struct {
	ReceiverID      uuid.UUID
	PraiseCount     int
	ScoreRealized   float64
	Quantifications [][]Quantification
}

// GiverSummary mirrors ReceiverSummary keyed by giver.
type GiverSummary struct {
	GiverID       uuid.UUID
	PraiseCount   int
	ScoreRealized float64
}

// PeriodDetails is the period detail view.
type PeriodDetails struct {
	Period      Period
	Quantifiers []QuantifierProgress
	Receivers   []ReceiverSummary
	Givers      []GiverSummary
	// Redacted is set when score fields were withheld from the caller.
	Redacted bool
}
