package quantify

import (
	"slices"

	"github.com/saucecodee/praise/internal/domain"
)

// ShouldRedact reports whether score fields must be withheld: partial
// consensus stays hidden from non-admins while a period is quantifying.
func ShouldRedact(status domain.PeriodStatus, isAdmin bool) bool {
	return status == domain.PeriodQuantify && !isAdmin
}

// RedactDetails projects the detail view for the caller. Completion counters
// stay visible; realized scores are zeroed and raw entries dropped.
func RedactDetails(d domain.PeriodDetails, isAdmin bool) domain.PeriodDetails {
	if !ShouldRedact(d.Period.Status, isAdmin) {
		return d
	}

	out := d
	out.Redacted = true
	out.Receivers = slices.Clone(d.Receivers)
	for i := range out.Receivers {
		out.Receivers[i].ScoreRealized = 0
		out.Receivers[i].Quantifications = nil
	}
	out.Givers = slices.Clone(d.Givers)
	for i := range out.Givers {
		out.Givers[i].ScoreRealized = 0
	}
	return out
}

// RedactPraise strips scores and quantifications from a praise list under the
// same rule as RedactDetails.
func RedactPraise(status domain.PeriodStatus, praise []domain.Praise, isAdmin bool) []domain.Praise {
	if !ShouldRedact(status, isAdmin) {
		return praise
	}
	out := slices.Clone(praise)
	for i := range out {
		out[i].Score = nil
		out[i].Quantifications = nil
	}
	return out
}
