package quantify

import (
	"testing"

	"github.com/saucecodee/praise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce_MeanOfDirectScores(t *testing.T) {
	praise := []domain.Praise{praiseItem(1, 100, 101, scored(10, 1), scored(11, 3), scored(12, 5))}

	res, err := Reduce(praise, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, res.Realized[newID(1)], 1e-9)
}

func TestReduce_DismissedLeavesDenominator(t *testing.T) {
	praise := []domain.Praise{praiseItem(1, 100, 101, dismissed(10), scored(11, 5), scored(12, 8))}

	res, err := Reduce(praise, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 6.5, res.Realized[newID(1)], 1e-9)

	_, ok := res.Contributions[ContributionKey{PraiseID: newID(1), QuantifierID: newID(10)}]
	assert.False(t, ok)
}

func TestReduce_AllDismissedIsZero(t *testing.T) {
	praise := []domain.Praise{praiseItem(1, 100, 101, dismissed(10), dismissed(11))}

	res, err := Reduce(praise, 0.1)
	require.NoError(t, err)
	assert.Zero(t, res.Realized[newID(1)])
}

func TestReduce_UnfinishedEntriesIgnored(t *testing.T) {
	praise := []domain.Praise{praiseItem(1, 100, 101, scored(10, 8), unscored(11), unscored(12))}

	res, err := Reduce(praise, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, res.Realized[newID(1)], 1e-9)
}

func TestReduce_DuplicateLaw(t *testing.T) {
	praise := []domain.Praise{
		praiseItem(1, 100, 101, scored(10, 5), scored(11, 8)),
		praiseItem(2, 100, 101, duplicateOf(10, 1), duplicateOf(11, 1)),
	}

	res, err := Reduce(praise, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 6.5, res.Realized[newID(1)], 1e-9)
	assert.InDelta(t, 0.65, res.Realized[newID(2)], 1e-9)
	assert.InDelta(t, 0.65, res.Contributions[ContributionKey{PraiseID: newID(2), QuantifierID: newID(10)}], 1e-9)
}

func TestReduce_MixedDirectAndDuplicateUsesDirectOnly(t *testing.T) {
	praise := []domain.Praise{
		praiseItem(1, 100, 101, scored(10, 5), scored(11, 8)),
		praiseItem(2, 100, 101, scored(10, 3), duplicateOf(11, 1), dismissed(12)),
	}

	res, err := Reduce(praise, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, res.Realized[newID(2)], 1e-9)
	assert.InDelta(t, 0.65, res.Contributions[ContributionKey{PraiseID: newID(2), QuantifierID: newID(11)}], 1e-9)
	assert.InDelta(t, 3.0, res.Contributions[ContributionKey{PraiseID: newID(2), QuantifierID: newID(10)}], 1e-9)
}

func TestReduce_ChainDiscountsOffRoot(t *testing.T) {
	praise := []domain.Praise{
		praiseItem(3, 100, 101, duplicateOf(10, 2)),
		praiseItem(2, 100, 101, duplicateOf(10, 1)),
		praiseItem(1, 100, 101, scored(10, 8)),
	}

	res, err := Reduce(praise, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, res.Realized[newID(2)], 1e-9)
	assert.InDelta(t, 4.0, res.Realized[newID(3)], 1e-9)
}

func TestReduce_CycleDetected(t *testing.T) {
	praise := []domain.Praise{
		praiseItem(1, 100, 101, duplicateOf(10, 2)),
		praiseItem(2, 100, 101, duplicateOf(10, 1)),
	}

	_, err := Reduce(praise, 0.1)
	assert.ErrorIs(t, err, domain.ErrDuplicateCycleDetected)
}

func TestReduce_DanglingTarget(t *testing.T) {
	praise := []domain.Praise{praiseItem(1, 100, 101, duplicateOf(10, 99))}

	_, err := Reduce(praise, 0.1)
	assert.ErrorIs(t, err, domain.ErrInvalidDuplicateTarget)
}

func TestReduce_Idempotent(t *testing.T) {
	praise := []domain.Praise{
		praiseItem(1, 100, 101, scored(10, 5), scored(11, 8)),
		praiseItem(2, 102, 101, duplicateOf(10, 1), dismissed(11)),
		praiseItem(3, 102, 103, scored(10, 13)),
	}

	first, err := Reduce(praise, 0.1)
	require.NoError(t, err)
	second, err := Reduce(praise, 0.1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Nil(t, praise[0].Score)
}
