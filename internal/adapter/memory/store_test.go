package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/saucecodee/praise/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newStore() (*Store, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(start)
	return NewStore(clock), clock
}

func TestPeriodRepo_WindowsNeverOverlap(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()
	repo := s.Periods()

	jan, err := repo.Create(ctx, domain.NewPeriod{Name: "Jan", EndDate: start.AddDate(0, 1, 0)})
	require.NoError(t, err)
	feb, err := repo.Create(ctx, domain.NewPeriod{Name: "Feb", EndDate: start.AddDate(0, 2, 0)})
	require.NoError(t, err)

	_, err = repo.Create(ctx, domain.NewPeriod{Name: "late", EndDate: start.AddDate(0, 1, 15)})
	assert.ErrorIs(t, err, domain.ErrPeriodOverlap)

	prev, err := repo.Previous(ctx, feb.ID)
	require.NoError(t, err)
	assert.Equal(t, jan.ID, prev.ID)

	_, err = repo.Previous(ctx, jan.ID)
	assert.ErrorIs(t, err, domain.ErrPeriodNotFound)

	got, err := repo.GetByDate(ctx, start.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, jan.ID, got.ID, "end date is inclusive")

	got, err = repo.GetByDate(ctx, start.AddDate(0, 1, 0).Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, feb.ID, got.ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, feb.ID, list[0].ID)

	_, err = repo.Update(ctx, feb.ID, "Feb", start.AddDate(0, 0, 10))
	assert.ErrorIs(t, err, domain.ErrPeriodOverlap)
}

func TestPeriodRepo_CreateCopiesSettings(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()

	p, err := s.Periods().Create(ctx, domain.NewPeriod{
		Name:     "Jan",
		EndDate:  start.AddDate(0, 1, 0),
		Settings: []domain.Setting{{Key: domain.KeyQuantifiersPerReceiver, Value: "3", Type: domain.SettingNumber}},
	})
	require.NoError(t, err)

	setting, err := s.Settings().Get(ctx, domain.KeyQuantifiersPerReceiver, domain.ValidID(p.ID))
	require.NoError(t, err)
	assert.Equal(t, "3", setting.Value)

	_, err = s.Settings().Get(ctx, domain.KeyQuantifiersPerReceiver, uuid.NullUUID{})
	assert.ErrorIs(t, err, domain.ErrSettingNotFound)
}

func TestPeriodRepo_Lifecycle(t *testing.T) {
	s, clock := newStore()
	ctx := context.Background()

	p, err := s.Periods().Create(ctx, domain.NewPeriod{Name: "Jan", EndDate: start.AddDate(0, 1, 0)})
	require.NoError(t, err)
	window := domain.Window{End: p.EndDate}

	clock.Advance(time.Hour)
	praise, err := s.Praise().Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(p.ID), GiverID: uuid.New(), ReceiverID: uuid.New(), Reason: "docs"})
	require.NoError(t, err)
	q1, q2 := uuid.New(), uuid.New()

	err = s.Periods().Close(ctx, p.ID, window)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = s.Quantifications().Submit(ctx, p.ID, praise.ID, q1, domain.ScoreOutcome(1), nil)
	assert.ErrorIs(t, err, domain.ErrPeriodNotQuantifying)

	rows := []domain.Quantification{{PraiseID: praise.ID, QuantifierID: q1}, {PraiseID: praise.ID, QuantifierID: q2}}
	require.NoError(t, s.Periods().StartQuantify(ctx, p.ID, window, rows))
	assert.ErrorIs(t, s.Periods().StartQuantify(ctx, p.ID, window, rows), domain.ErrInvalidTransition)

	_, err = s.Quantifications().Submit(ctx, p.ID, praise.ID, uuid.New(), domain.ScoreOutcome(1), nil)
	assert.ErrorIs(t, err, domain.ErrNotAssigned)

	q, err := s.Quantifications().Submit(ctx, p.ID, praise.ID, q1, domain.ScoreOutcome(5), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeScore, q.Kind())

	err = s.Periods().Close(ctx, p.ID, window)
	var incomplete *domain.IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []uuid.UUID{q2}, incomplete.QuantifierIDs)
	assert.ErrorIs(t, err, domain.ErrQuantificationIncomplete)

	_, err = s.Quantifications().Submit(ctx, p.ID, praise.ID, q2, domain.DismissOutcome(), nil)
	require.NoError(t, err)
	// Resubmission overwrites the previous outcome.
	q, err = s.Quantifications().Submit(ctx, p.ID, praise.ID, q1, domain.DismissOutcome(), nil)
	require.NoError(t, err)
	assert.Nil(t, q.Score)
	assert.True(t, q.Dismissed)

	require.NoError(t, s.Periods().Close(ctx, p.ID, window))

	got, err := s.Periods().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodClosed, got.Status)

	_, err = s.Quantifications().Submit(ctx, p.ID, praise.ID, q1, domain.ScoreOutcome(1), nil)
	assert.ErrorIs(t, err, domain.ErrPeriodNotQuantifying)
}

func TestPraiseRepo_CreateRequiresOpenPeriod(t *testing.T) {
	s, clock := newStore()
	ctx := context.Background()

	p, err := s.Periods().Create(ctx, domain.NewPeriod{Name: "Jan", EndDate: start.AddDate(0, 1, 0)})
	require.NoError(t, err)
	window := domain.Window{End: p.EndDate}

	clock.Advance(time.Hour)
	_, err = s.Praise().Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(uuid.New()), GiverID: uuid.New(), ReceiverID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrPeriodNotFound)

	require.NoError(t, s.Periods().StartQuantify(ctx, p.ID, window, nil))

	_, err = s.Praise().Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(p.ID), GiverID: uuid.New(), ReceiverID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrPeriodNotOpen)

	list, err := s.Praise().ListByWindow(ctx, window)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPeriodRepo_StartQuantifyRejectsUnassignedPraise(t *testing.T) {
	s, clock := newStore()
	ctx := context.Background()

	p, err := s.Periods().Create(ctx, domain.NewPeriod{Name: "Jan", EndDate: start.AddDate(0, 1, 0)})
	require.NoError(t, err)
	window := domain.Window{End: p.EndDate}

	clock.Advance(time.Hour)
	first, err := s.Praise().Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(p.ID), GiverID: uuid.New(), ReceiverID: uuid.New()})
	require.NoError(t, err)
	rows := []domain.Quantification{{PraiseID: first.ID, QuantifierID: uuid.New()}}

	// Arrives after the assignment was computed.
	late, err := s.Praise().Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(p.ID), GiverID: uuid.New(), ReceiverID: uuid.New()})
	require.NoError(t, err)

	err = s.Periods().StartQuantify(ctx, p.ID, window, rows)
	assert.ErrorIs(t, err, domain.ErrPeriodPraiseChanged)

	got, err := s.Periods().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodOpen, got.Status)

	rows = append(rows, domain.Quantification{PraiseID: late.ID, QuantifierID: uuid.New()})
	require.NoError(t, s.Periods().StartQuantify(ctx, p.ID, window, rows))
}

func TestQuantificationRepo_DuplicateCheckSeesReceiverPraise(t *testing.T) {
	s, clock := newStore()
	ctx := context.Background()

	p, err := s.Periods().Create(ctx, domain.NewPeriod{Name: "Jan", EndDate: start.AddDate(0, 1, 0)})
	require.NoError(t, err)
	window := domain.Window{End: p.EndDate}
	receiver := uuid.New()

	clock.Advance(time.Hour)
	var ids []uuid.UUID
	for _, r := range []uuid.UUID{receiver, receiver, uuid.New()} {
		pr, err := s.Praise().Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(p.ID), GiverID: uuid.New(), ReceiverID: r})
		require.NoError(t, err)
		ids = append(ids, pr.ID)
	}
	q := uuid.New()
	var rows []domain.Quantification
	for _, id := range ids {
		rows = append(rows, domain.Quantification{PraiseID: id, QuantifierID: q})
	}
	require.NoError(t, s.Periods().StartQuantify(ctx, p.ID, window, rows))

	var seen []uuid.UUID
	rejected := errors.New("rejected")
	_, err = s.Quantifications().Submit(ctx, p.ID, ids[0], q, domain.DuplicateOutcome(ids[1]), &domain.DuplicateCheck{
		Window: window,
		Validate: func(receiverPraise []domain.Praise) error {
			for _, rp := range receiverPraise {
				seen = append(seen, rp.ID)
			}
			return rejected
		},
	})
	assert.ErrorIs(t, err, rejected)
	assert.ElementsMatch(t, ids[:2], seen)

	got, err := s.Praise().GetByID(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, got.Quantifications, 1)
	assert.False(t, got.Quantifications[0].DuplicatePraiseID.Valid, "rejected mark is not written")
}

func TestPraiseRepo_SnapshotIsACopy(t *testing.T) {
	s, clock := newStore()
	ctx := context.Background()

	clock.Advance(time.Minute)
	p, err := s.Praise().Create(ctx, domain.NewPraise{GiverID: uuid.New(), ReceiverID: uuid.New()})
	require.NoError(t, err)

	window := domain.Window{End: start.AddDate(0, 1, 0)}
	list, err := s.Praise().ListByWindow(ctx, window)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.Praise().UpdateScores(ctx, map[uuid.UUID]float64{p.ID: 3}))
	assert.Nil(t, list[0].Score)

	got, err := s.Praise().GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Score)
	assert.Equal(t, 3.0, *got.Score)

	outside, err := s.Praise().ListByWindow(ctx, domain.Window{Start: start.Add(time.Hour), End: start.AddDate(0, 1, 0)})
	require.NoError(t, err)
	assert.Empty(t, outside)
}

func TestUserRepo_Roles(t *testing.T) {
	s, _ := newStore()
	ctx := context.Background()
	users := s.Users()

	u, err := users.Create(ctx, "ada", []domain.Role{domain.RoleUser})
	require.NoError(t, err)

	u, err = users.AddRole(ctx, u.ID, domain.RoleQuantifier)
	require.NoError(t, err)
	u, err = users.AddRole(ctx, u.ID, domain.RoleQuantifier)
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleQuantifier, domain.RoleUser}, u.Roles)

	list, err := users.ListByRole(ctx, domain.RoleQuantifier)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	u, err = users.RemoveRole(ctx, u.ID, domain.RoleQuantifier)
	require.NoError(t, err)
	assert.False(t, u.HasRole(domain.RoleQuantifier))

	_, err = users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLocker(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()
	id := uuid.New()

	release, err := l.Lock(ctx, id)
	require.NoError(t, err)

	_, err = l.Lock(ctx, id)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	release()
	release()

	release, err = l.Lock(ctx, id)
	require.NoError(t, err)
	release()
}
