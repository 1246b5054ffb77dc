package quantify

import (
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailsFixture(t *testing.T, status domain.PeriodStatus) domain.PeriodDetails {
	t.Helper()
	praise := []domain.Praise{
		praiseItem(1, 100, 101, scored(10, 1), scored(11, 3), scored(12, 5)),
		praiseItem(2, 102, 101, dismissed(10), scored(11, 5), scored(12, 8)),
		praiseItem(3, 100, 103, scored(10, 8), unscored(11), duplicateOf(12, 4)),
		praiseItem(4, 100, 103, scored(10, 13), scored(11, 13), unscored(12)),
	}
	res, err := Reduce(praise, 0.1)
	require.NoError(t, err)
	return BuildDetails(domain.Period{ID: uuid.New(), Status: status}, praise, res)
}

func TestBuildDetails(t *testing.T) {
	d := detailsFixture(t, domain.PeriodClosed)

	require.Len(t, d.Quantifiers, 3)
	assert.Equal(t, domain.QuantifierProgress{QuantifierID: newID(10), FinishedCount: 4, PraiseCount: 4}, d.Quantifiers[0])
	assert.Equal(t, domain.QuantifierProgress{QuantifierID: newID(11), FinishedCount: 3, PraiseCount: 4}, d.Quantifiers[1])
	assert.Equal(t, domain.QuantifierProgress{QuantifierID: newID(12), FinishedCount: 3, PraiseCount: 4}, d.Quantifiers[2])

	require.Len(t, d.Receivers, 2)
	assert.Equal(t, newID(101), d.Receivers[0].ReceiverID)
	assert.Equal(t, 2, d.Receivers[0].PraiseCount)
	assert.InDelta(t, 3.0+6.5, d.Receivers[0].ScoreRealized, 1e-9)
	require.Len(t, d.Receivers[0].Quantifications, 2)
	assert.Len(t, d.Receivers[0].Quantifications[0], 3)

	assert.Equal(t, newID(103), d.Receivers[1].ReceiverID)
	assert.InDelta(t, 8.0+13.0, d.Receivers[1].ScoreRealized, 1e-9)

	require.Len(t, d.Givers, 2)
	assert.Equal(t, newID(100), d.Givers[0].GiverID)
	assert.Equal(t, 3, d.Givers[0].PraiseCount)
	assert.InDelta(t, 3.0+8.0+13.0, d.Givers[0].ScoreRealized, 1e-9)
	assert.InDelta(t, 6.5, d.Givers[1].ScoreRealized, 1e-9)
	assert.False(t, d.Redacted)
}

func TestRedactDetails(t *testing.T) {
	d := detailsFixture(t, domain.PeriodQuantify)

	admin := RedactDetails(d, true)
	assert.False(t, admin.Redacted)
	assert.NotZero(t, admin.Receivers[0].ScoreRealized)

	user := RedactDetails(d, false)
	assert.True(t, user.Redacted)
	for _, r := range user.Receivers {
		assert.Zero(t, r.ScoreRealized)
		assert.Nil(t, r.Quantifications)
		assert.NotZero(t, r.PraiseCount)
	}
	for _, g := range user.Givers {
		assert.Zero(t, g.ScoreRealized)
	}
	assert.Equal(t, d.Quantifiers, user.Quantifiers)

	// The input view is left intact.
	assert.NotZero(t, d.Receivers[0].ScoreRealized)
}

func TestRedactDetails_OnlyWhileQuantifying(t *testing.T) {
	for _, status := range []domain.PeriodStatus{domain.PeriodOpen, domain.PeriodClosed} {
		d := detailsFixture(t, status)
		assert.Equal(t, d, RedactDetails(d, false), status)
	}
}

func TestRedactPraise(t *testing.T) {
	praise := []domain.Praise{praiseItem(1, 100, 101, scored(10, 3))}
	res, err := Reduce(praise, 0.1)
	require.NoError(t, err)
	praise = WithScores(praise, res)

	out := RedactPraise(domain.PeriodQuantify, praise, false)
	assert.Nil(t, out[0].Score)
	assert.Nil(t, out[0].Quantifications)
	require.NotNil(t, praise[0].Score)
	assert.InDelta(t, 3.0, *praise[0].Score, 1e-9)

	assert.Equal(t, praise, RedactPraise(domain.PeriodQuantify, praise, true))
	assert.Equal(t, praise, RedactPraise(domain.PeriodClosed, praise, false))
}

func TestUnfinishedQuantifiers(t *testing.T) {
	praise := []domain.Praise{
		praiseItem(1, 100, 101, scored(10, 1), unscored(12)),
		praiseItem(2, 100, 101, unscored(12), unscored(11), dismissed(13)),
	}

	assert.Equal(t, []uuid.UUID{newID(11), newID(12)}, UnfinishedQuantifiers(praise))
	assert.Empty(t, UnfinishedQuantifiers(praise[:0]))
}

func TestPseudonym(t *testing.T) {
	period, receiver := uuid.New(), uuid.New()

	name := Pseudonym(period, receiver)
	assert.Equal(t, name, Pseudonym(period, receiver))
	assert.Contains(t, name, " ")
	assert.NotContains(t, name, receiver.String())
}

func TestPseudonyms_UniqueWithinPeriod(t *testing.T) {
	period := uuid.New()
	// More receivers than base names, so some must collide.
	var praise []domain.Praise
	for range 700 {
		praise = append(praise, domain.Praise{ID: uuid.New(), ReceiverID: uuid.New()})
	}
	praise = append(praise, domain.Praise{ID: uuid.New(), ReceiverID: praise[0].ReceiverID})

	names := Pseudonyms(period, praise)
	require.Len(t, names, 700)

	used := make(map[string]uuid.UUID)
	for receiver, name := range names {
		other, dup := used[name]
		require.False(t, dup, "%s shared by %s and %s", name, receiver, other)
		used[name] = receiver
	}

	shuffled := slices.Clone(praise)
	slices.Reverse(shuffled)
	assert.Equal(t, names, Pseudonyms(period, shuffled))
}
