package quantify

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

// ContributionKey identifies one quantifier's entry on one praise.
type ContributionKey struct {
	PraiseID     uuid.UUID
	QuantifierID uuid.UUID
}

// Result is the reduction of a praise snapshot.
type Result struct {
	// Realized is the realized score of every praise in the snapshot.
	Realized map[uuid.UUID]float64
	// Contributions holds each finished, non-dismissed entry's effective value:
	// the score itself, or the discounted root score for a duplicate mark.
	Contributions map[ContributionKey]float64
}

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	done
)

type reducer struct {
	byID    map[uuid.UUID]*domain.Praise
	percent float64
	state   map[uuid.UUID]visitState
	root    map[uuid.UUID]float64
}

// Reduce computes realized scores for a snapshot of praise and their
// quantifications. It never mutates the input and is safe to repeat.
//
// A praise with direct scores realizes the mean of those scores; dismissed
// and unfinished entries are ignored. A praise with no direct scores but at
// least one duplicate mark realizes the mean of its targets' root scores
// multiplied by duplicatePercentage. The percentage is applied once, off the
// root of the duplicate chain. Everything else realizes 0.
func Reduce(praise []domain.Praise, duplicatePercentage float64) (*Result, error) {
	r := &reducer{
		byID:    make(map[uuid.UUID]*domain.Praise, len(praise)),
		percent: duplicatePercentage,
		state:   make(map[uuid.UUID]visitState, len(praise)),
		root:    make(map[uuid.UUID]float64, len(praise)),
	}
	for i := range praise {
		r.byID[praise[i].ID] = &praise[i]
	}

	res := &Result{
		Realized:      make(map[uuid.UUID]float64, len(praise)),
		Contributions: make(map[ContributionKey]float64),
	}

	for i := range praise {
		p := &praise[i]

		direct, dupTargets := split(p)
		switch {
		case len(direct) > 0:
			res.Realized[p.ID] = mean(direct)
		case len(dupTargets) > 0:
			var sum float64
			for _, t := range dupTargets {
				v, err := r.rootScore(t)
				if err != nil {
					return nil, fmt.Errorf("praise %s: %w", p.ID, err)
				}
				sum += v * r.percent
			}
			res.Realized[p.ID] = sum / float64(len(dupTargets))
		default:
			res.Realized[p.ID] = 0
		}

		for _, q := range p.Quantifications {
			key := ContributionKey{PraiseID: p.ID, QuantifierID: q.QuantifierID}
			switch q.Kind() {
			case domain.OutcomeScore:
				res.Contributions[key] = *q.Score
			case domain.OutcomeDuplicate:
				v, err := r.rootScore(q.DuplicatePraiseID.UUID)
				if err != nil {
					return nil, fmt.Errorf("praise %s: %w", p.ID, err)
				}
				res.Contributions[key] = v * r.percent
			}
		}
	}
	return res, nil
}

// rootScore follows duplicate marks down to praise with direct scores and
// returns their undiscounted mean.
func (r *reducer) rootScore(id uuid.UUID) (float64, error) {
	switch r.state[id] {
	case done:
		return r.root[id], nil
	case visiting:
		return 0, fmt.Errorf("%w: through praise %s", domain.ErrDuplicateCycleDetected, id)
	}

	p, ok := r.byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: praise %s is not in the period", domain.ErrInvalidDuplicateTarget, id)
	}

	r.state[id] = visiting
	direct, dupTargets := split(p)

	var v float64
	switch {
	case len(direct) > 0:
		v = mean(direct)
	case len(dupTargets) > 0:
		var sum float64
		for _, t := range dupTargets {
			tv, err := r.rootScore(t)
			if err != nil {
				return 0, err
			}
			sum += tv
		}
		v = sum / float64(len(dupTargets))
	}

	r.state[id] = done
	r.root[id] = v
	return v, nil
}

func split(p *domain.Praise) (direct []float64, dupTargets []uuid.UUID) {
	for _, q := range p.Quantifications {
		switch q.Kind() {
		case domain.OutcomeScore:
			direct = append(direct, *q.Score)
		case domain.OutcomeDuplicate:
			dupTargets = append(dupTargets, q.DuplicatePraiseID.UUID)
		}
	}
	return direct, dupTargets
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
