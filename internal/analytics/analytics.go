// Package analytics derives read-only statistics for a closed period from the
// reduced praise snapshot.
package analytics

import (
	"cmp"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
	"github.com/saucecodee/praise/internal/quantify"
)

// TopPraiseLimit caps the TopPraise list.
const TopPraiseLimit = 10

type Stats struct {
	PraiseCount     int
	ReceiverCount   int
	GiverCount      int
	QuantifierCount int
	TotalScore      float64
}

type PraiseScore struct {
	PraiseID   uuid.UUID
	GiverID    uuid.UUID
	ReceiverID uuid.UUID
	Score      float64
}

// UserTotal is one receiver or giver with their praise count and score.
type UserTotal struct {
	UserID      uuid.UUID
	PraiseCount int
	Score       float64
}

// Bucket counts direct scores equal to Value.
type Bucket struct {
	Value float64
	Count int
}

// QuantifierScore summarises one quantifier's contributions. Count and Mean
// cover scores and duplicate marks; Deviation is the mean absolute distance
// between their Scored direct scores and the realized score.
type QuantifierScore struct {
	QuantifierID uuid.UUID
	Count        int
	Scored       int
	Total        float64
	Mean         float64
	Deviation    float64
}

// Spread is the max-min range of the direct scores on one praise.
type Spread struct {
	PraiseID uuid.UUID
	Spread   float64
}

type Report struct {
	Stats            Stats
	TopPraise        []PraiseScore
	ReceiversByScore []UserTotal
	ReceiversByCount []UserTotal
	GiversByScore    []UserTotal
	GiversByCount    []UserTotal
	Distribution     []Bucket
	Quantifiers      []QuantifierScore
	Spreads          []Spread
}

// Build computes the report. allowed is the period's score scale; scores off
// the scale are still counted in their own bucket.
func Build(praise []domain.Praise, res *quantify.Result, allowed []float64) Report {
	var rep Report

	receivers := make(map[uuid.UUID]*UserTotal)
	givers := make(map[uuid.UUID]*UserTotal)
	quantifiers := make(map[uuid.UUID]*QuantifierScore)
	buckets := make(map[float64]int, len(allowed))
	for _, v := range allowed {
		buckets[v] = 0
	}

	for _, p := range praise {
		realized := res.Realized[p.ID]
		rep.Stats.PraiseCount++
		rep.Stats.TotalScore += realized
		rep.TopPraise = append(rep.TopPraise, PraiseScore{PraiseID: p.ID, GiverID: p.GiverID, ReceiverID: p.ReceiverID, Score: realized})

		addTotal(receivers, p.ReceiverID, realized)
		addTotal(givers, p.GiverID, realized)

		lo, hi := math.Inf(1), math.Inf(-1)
		for _, q := range p.Quantifications {
			qs, ok := quantifiers[q.QuantifierID]
			if !ok {
				qs = &QuantifierScore{QuantifierID: q.QuantifierID}
				quantifiers[q.QuantifierID] = qs
			}

			if v, ok := res.Contributions[quantify.ContributionKey{PraiseID: p.ID, QuantifierID: q.QuantifierID}]; ok {
				qs.Count++
				qs.Total += v
			}

			if q.Kind() != domain.OutcomeScore {
				continue
			}
			score := *q.Score
			buckets[score]++
			qs.Scored++
			qs.Deviation += math.Abs(score - realized)
			lo, hi = min(lo, score), max(hi, score)
		}
		if hi >= lo {
			rep.Spreads = append(rep.Spreads, Spread{PraiseID: p.ID, Spread: hi - lo})
		}
	}

	rep.Stats.ReceiverCount = len(receivers)
	rep.Stats.GiverCount = len(givers)
	rep.Stats.QuantifierCount = len(quantifiers)

	slices.SortFunc(rep.TopPraise, func(a, b PraiseScore) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return domain.CompareIDs(a.PraiseID, b.PraiseID)
	})
	if len(rep.TopPraise) > TopPraiseLimit {
		rep.TopPraise = rep.TopPraise[:TopPraiseLimit]
	}

	rep.ReceiversByScore, rep.ReceiversByCount = rank(receivers)
	rep.GiversByScore, rep.GiversByCount = rank(givers)

	for v, n := range buckets {
		rep.Distribution = append(rep.Distribution, Bucket{Value: v, Count: n})
	}
	slices.SortFunc(rep.Distribution, func(a, b Bucket) int { return cmp.Compare(a.Value, b.Value) })

	for _, qs := range quantifiers {
		if qs.Count > 0 {
			qs.Mean = qs.Total / float64(qs.Count)
		}
		if qs.Scored > 0 {
			qs.Deviation /= float64(qs.Scored)
		}
		rep.Quantifiers = append(rep.Quantifiers, *qs)
	}
	slices.SortFunc(rep.Quantifiers, func(a, b QuantifierScore) int { return domain.CompareIDs(a.QuantifierID, b.QuantifierID) })

	slices.SortFunc(rep.Spreads, func(a, b Spread) int {
		if c := cmp.Compare(b.Spread, a.Spread); c != 0 {
			return c
		}
		return domain.CompareIDs(a.PraiseID, b.PraiseID)
	})
	return rep
}

func addTotal(m map[uuid.UUID]*UserTotal, id uuid.UUID, score float64) {
	t, ok := m[id]
	if !ok {
		t = &UserTotal{UserID: id}
		m[id] = t
	}
	t.PraiseCount++
	t.Score += score
}

func rank(m map[uuid.UUID]*UserTotal) (byScore, byCount []UserTotal) {
	for _, t := range m {
		byScore = append(byScore, *t)
	}
	byCount = slices.Clone(byScore)

	slices.SortFunc(byScore, func(a, b UserTotal) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return domain.CompareIDs(a.UserID, b.UserID)
	})
	slices.SortFunc(byCount, func(a, b UserTotal) int {
		if c := cmp.Compare(b.PraiseCount, a.PraiseCount); c != 0 {
			return c
		}
		return domain.CompareIDs(a.UserID, b.UserID)
	})
	return byScore, byCount
}
