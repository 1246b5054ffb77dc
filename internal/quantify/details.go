package quantify

import (
	"slices"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

// BuildDetails composes the period detail view from a praise snapshot and its
// reduction. It does no scoring of its own.
func BuildDetails(period domain.Period, praise []domain.Praise, res *Result) domain.PeriodDetails {
	ordered := slices.Clone(praise)
	slices.SortFunc(ordered, comparePraiseByReceiver)

	progress := make(map[uuid.UUID]*domain.QuantifierProgress)
	receivers := make(map[uuid.UUID]*domain.ReceiverSummary)
	givers := make(map[uuid.UUID]*domain.GiverSummary)

	for _, p := range ordered {
		realized := res.Realized[p.ID]

		rs, ok := receivers[p.ReceiverID]
		if !ok {
			rs = &domain.ReceiverSummary{ReceiverID: p.ReceiverID}
			receivers[p.ReceiverID] = rs
		}
		rs.PraiseCount++
		rs.ScoreRealized += realized
		rs.Quantifications = append(rs.Quantifications, slices.Clone(p.Quantifications))

		gs, ok := givers[p.GiverID]
		if !ok {
			gs = &domain.GiverSummary{GiverID: p.GiverID}
			givers[p.GiverID] = gs
		}
		gs.PraiseCount++
		gs.ScoreRealized += realized

		for _, q := range p.Quantifications {
			qp, ok := progress[q.QuantifierID]
			if !ok {
				qp = &domain.QuantifierProgress{QuantifierID: q.QuantifierID}
				progress[q.QuantifierID] = qp
			}
			qp.PraiseCount++
			if q.Finished() {
				qp.FinishedCount++
			}
		}
	}

	details := domain.PeriodDetails{Period: period}
	for _, qp := range progress {
		details.Quantifiers = append(details.Quantifiers, *qp)
	}
	for _, rs := range receivers {
		details.Receivers = append(details.Receivers, *rs)
	}
	for _, gs := range givers {
		details.Givers = append(details.Givers, *gs)
	}

	slices.SortFunc(details.Quantifiers, func(a, b domain.QuantifierProgress) int {
		return domain.CompareIDs(a.QuantifierID, b.QuantifierID)
	})
	slices.SortFunc(details.Receivers, func(a, b domain.ReceiverSummary) int {
		return domain.CompareIDs(a.ReceiverID, b.ReceiverID)
	})
	slices.SortFunc(details.Givers, func(a, b domain.GiverSummary) int {
		return domain.CompareIDs(a.GiverID, b.GiverID)
	})
	return details
}

// UnfinishedQuantifiers returns the IDs of quantifiers holding at least one
// unfinished row, ordered by ID.
func UnfinishedQuantifiers(praise []domain.Praise) []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range praise {
		for _, q := range p.Quantifications {
			if !q.Finished() {
				ids = append(ids, q.QuantifierID)
			}
		}
	}
	slices.SortFunc(ids, domain.CompareIDs)
	return slices.Compact(ids)
}

// WithScores returns a copy of praise with Score set from the reduction.
func WithScores(praise []domain.Praise, res *Result) []domain.Praise {
	out := slices.Clone(praise)
	for i := range out {
		v := res.Realized[out[i].ID]
		out[i].Score = &v
	}
	return out
}
