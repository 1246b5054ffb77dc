package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucecodee/praise/internal/domain"
	"github.com/saucecodee/praise/internal/quantify"
)

func createTestUser(t *testing.T, repo *UserRepo, name string, roles ...domain.Role) *domain.User {
	t.Helper()
	u, err := repo.Create(context.Background(), name, roles)
	require.NoError(t, err)
	return u
}

func createTestPeriod(t *testing.T, repo *PeriodRepo, name string, end time.Time, settings ...domain.Setting) *domain.Period {
	t.Helper()
	p, err := repo.Create(context.Background(), domain.NewPeriod{Name: name, EndDate: end, Settings: settings})
	require.NoError(t, err)
	return p
}

func TestUserRepo_Roles(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUserRepo(pool)
	ctx := context.Background()

	u := createTestUser(t, repo, "alice", domain.RoleUser, domain.RoleUser)
	assert.Equal(t, []domain.Role{domain.RoleUser}, u.Roles)

	u, err := repo.AddRole(ctx, u.ID, domain.RoleQuantifier)
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleQuantifier, domain.RoleUser}, u.Roles)

	u, err = repo.AddRole(ctx, u.ID, domain.RoleQuantifier)
	require.NoError(t, err)
	assert.Len(t, u.Roles, 2)

	quantifiers, err := repo.ListByRole(ctx, domain.RoleQuantifier)
	require.NoError(t, err)
	require.Len(t, quantifiers, 1)
	assert.Equal(t, u.ID, quantifiers[0].ID)

	u, err = repo.RemoveRole(ctx, u.ID, domain.RoleQuantifier)
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleUser}, u.Roles)

	require.NoError(t, repo.SetDeactivated(ctx, u.ID, true))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Deactivated)
}

func TestUserRepo_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUserRepo(pool)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.AddRole(ctx, uuid.New(), domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.ErrorIs(t, repo.SetDeactivated(ctx, uuid.New(), true), domain.ErrUserNotFound)
}

func TestSettingRepo_Scopes(t *testing.T) {
	pool := setupTestDB(t)
	settings := NewSettingRepo(pool)
	periods := NewPeriodRepo(pool)
	ctx := context.Background()

	defaults := []domain.Setting{
		{Key: domain.KeyPraisePerQuantifier, Value: "50", Type: domain.SettingNumber},
		{Key: domain.KeyQuantifiersPerReceiver, Value: "3", Type: domain.SettingNumber},
	}
	n, err := settings.InsertIfAbsent(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = settings.InsertIfAbsent(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	period := createTestPeriod(t, periods, "June", time.Now().Add(time.Hour),
		domain.Setting{Key: domain.KeyPraisePerQuantifier, Value: "50", Type: domain.SettingNumber})
	scope := domain.ValidID(period.ID)

	_, err = settings.SetValue(ctx, domain.KeyPraisePerQuantifier, scope, "10")
	require.NoError(t, err)

	global, err := settings.Get(ctx, domain.KeyPraisePerQuantifier, uuid.NullUUID{})
	require.NoError(t, err)
	assert.Equal(t, "50", global.Value)
	assert.False(t, global.PeriodID.Valid)

	scoped, err := settings.Get(ctx, domain.KeyPraisePerQuantifier, scope)
	require.NoError(t, err)
	assert.Equal(t, "10", scoped.Value)
	assert.Equal(t, period.ID, scoped.PeriodID.UUID)

	_, err = settings.Get(ctx, domain.KeyQuantifiersPerReceiver, scope)
	assert.ErrorIs(t, err, domain.ErrSettingNotFound)

	_, err = settings.SetValue(ctx, "UNKNOWN", uuid.NullUUID{}, "x")
	assert.ErrorIs(t, err, domain.ErrSettingNotFound)

	list, err := settings.List(ctx, uuid.NullUUID{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.KeyPraisePerQuantifier, list[0].Key)
}

func TestPeriodRepo_Ordering(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPeriodRepo(pool)
	ctx := context.Background()

	base := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	jan := createTestPeriod(t, repo, "January", base)
	feb := createTestPeriod(t, repo, "February", base.AddDate(0, 1, 0))

	_, err := repo.Create(ctx, domain.NewPeriod{Name: "Early", EndDate: base.AddDate(0, 0, -10)})
	assert.ErrorIs(t, err, domain.ErrPeriodOverlap)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, feb.ID, list[0].ID)

	got, err := repo.GetByDate(ctx, base.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, feb.ID, got.ID)

	got, err = repo.GetByDate(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, jan.ID, got.ID)

	_, err = repo.GetByDate(ctx, base.AddDate(1, 0, 0))
	assert.ErrorIs(t, err, domain.ErrPeriodNotFound)

	prev, err := repo.Previous(ctx, feb.ID)
	require.NoError(t, err)
	assert.Equal(t, jan.ID, prev.ID)

	_, err = repo.Previous(ctx, jan.ID)
	assert.ErrorIs(t, err, domain.ErrPeriodNotFound)

	_, err = repo.Update(ctx, feb.ID, "February", base.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, domain.ErrPeriodOverlap)

	updated, err := repo.Update(ctx, feb.ID, "Feb", base.AddDate(0, 0, 28))
	require.NoError(t, err)
	assert.Equal(t, "Feb", updated.Name)
	assert.True(t, updated.EndDate.Equal(base.AddDate(0, 0, 28)))
}

func TestPeriodRepo_Lifecycle(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepo(pool)
	periods := NewPeriodRepo(pool)
	praise := NewPraiseRepo(pool)
	quants := NewQuantificationRepo(pool)
	ctx := context.Background()

	giver := createTestUser(t, users, "giver", domain.RoleUser)
	receiver := createTestUser(t, users, "receiver", domain.RoleUser)
	q1 := createTestUser(t, users, "q1", domain.RoleQuantifier)
	q2 := createTestUser(t, users, "q2", domain.RoleQuantifier)

	period := createTestPeriod(t, periods, "Now", time.Now().Add(time.Hour))
	window := domain.Window{End: period.EndDate}

	first, err := praise.Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(period.ID), GiverID: giver.ID, ReceiverID: receiver.ID, Reason: "for docs", ReasonRealized: "for docs"})
	require.NoError(t, err)
	second, err := praise.Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(period.ID), GiverID: giver.ID, ReceiverID: receiver.ID, Reason: "for docs again", ReasonRealized: "for docs again"})
	require.NoError(t, err)

	_, err = quants.Submit(ctx, period.ID, first.ID, q1.ID, domain.ScoreOutcome(5), nil)
	assert.ErrorIs(t, err, domain.ErrPeriodNotQuantifying)

	var assignments []domain.Quantification
	for _, p := range []*domain.Praise{first, second} {
		for _, q := range []*domain.User{q1, q2} {
			assignments = append(assignments, domain.Quantification{PraiseID: p.ID, QuantifierID: q.ID})
		}
	}
	require.NoError(t, periods.StartQuantify(ctx, period.ID, window, assignments))
	assert.ErrorIs(t, periods.StartQuantify(ctx, period.ID, window, assignments), domain.ErrInvalidTransition)
	assert.ErrorIs(t, periods.StartQuantify(ctx, uuid.New(), window, nil), domain.ErrPeriodNotFound)

	_, err = periods.Update(ctx, period.ID, "Later", period.EndDate.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrPeriodNotOpen)

	listed, err := praise.ListByWindow(ctx, window)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Len(t, listed[0].Quantifications, 2)

	outsider := createTestUser(t, users, "outsider", domain.RoleQuantifier)
	_, err = quants.Submit(ctx, period.ID, first.ID, outsider.ID, domain.ScoreOutcome(5), nil)
	assert.ErrorIs(t, err, domain.ErrNotAssigned)

	_, err = quants.Submit(ctx, uuid.New(), first.ID, q1.ID, domain.ScoreOutcome(5), nil)
	assert.ErrorIs(t, err, domain.ErrPeriodNotFound)

	_, err = quants.Submit(ctx, period.ID, first.ID, q1.ID, domain.Outcome{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidOutcome)

	got, err := quants.Submit(ctx, period.ID, first.ID, q1.ID, domain.DismissOutcome(), nil)
	require.NoError(t, err)
	assert.True(t, got.Dismissed)

	got, err = quants.Submit(ctx, period.ID, first.ID, q1.ID, domain.ScoreOutcome(8), nil)
	require.NoError(t, err)
	require.NotNil(t, got.Score)
	assert.InDelta(t, 8, *got.Score, 1e-9)
	assert.False(t, got.Dismissed)

	_, err = quants.Submit(ctx, period.ID, first.ID, q2.ID, domain.ScoreOutcome(13), nil)
	require.NoError(t, err)
	_, err = quants.Submit(ctx, period.ID, second.ID, q1.ID, domain.DuplicateOutcome(first.ID), nil)
	require.NoError(t, err)

	err = periods.Close(ctx, period.ID, window)
	var incomplete *domain.IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []uuid.UUID{q2.ID}, incomplete.QuantifierIDs)

	_, err = quants.Submit(ctx, period.ID, second.ID, q2.ID, domain.ScoreOutcome(3), nil)
	require.NoError(t, err)

	require.NoError(t, periods.Close(ctx, period.ID, window))
	assert.ErrorIs(t, periods.Close(ctx, period.ID, window), domain.ErrInvalidTransition)

	_, err = quants.Submit(ctx, period.ID, first.ID, q1.ID, domain.ScoreOutcome(1), nil)
	assert.ErrorIs(t, err, domain.ErrPeriodNotQuantifying)

	require.NoError(t, praise.UpdateScores(ctx, map[uuid.UUID]float64{first.ID: 10.5, second.ID: 1.05}))

	stored, err := praise.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Score)
	assert.InDelta(t, 10.5, *stored.Score, 1e-9)
	assert.Len(t, stored.Quantifications, 2)

	closed, err := periods.GetByID(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodClosed, closed.Status)
}

func TestPraiseRepo_CreateRequiresOpenPeriod(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepo(pool)
	periods := NewPeriodRepo(pool)
	praise := NewPraiseRepo(pool)
	ctx := context.Background()

	giver := createTestUser(t, users, "giver", domain.RoleUser)
	receiver := createTestUser(t, users, "receiver", domain.RoleUser)
	period := createTestPeriod(t, periods, "Now", time.Now().Add(time.Hour))
	window := domain.Window{End: period.EndDate}

	_, err := praise.Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(uuid.New()), GiverID: giver.ID, ReceiverID: receiver.ID})
	assert.ErrorIs(t, err, domain.ErrPeriodNotFound)

	first, err := praise.Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(period.ID), GiverID: giver.ID, ReceiverID: receiver.ID})
	require.NoError(t, err)
	late, err := praise.Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(period.ID), GiverID: giver.ID, ReceiverID: receiver.ID})
	require.NoError(t, err)

	q := createTestUser(t, users, "q", domain.RoleQuantifier)
	rows := []domain.Quantification{{PraiseID: first.ID, QuantifierID: q.ID}}
	assert.ErrorIs(t, periods.StartQuantify(ctx, period.ID, window, rows), domain.ErrPeriodPraiseChanged)

	open, err := periods.GetByID(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodOpen, open.Status)

	rows = append(rows, domain.Quantification{PraiseID: late.ID, QuantifierID: q.ID})
	require.NoError(t, periods.StartQuantify(ctx, period.ID, window, rows))

	_, err = praise.Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(period.ID), GiverID: giver.ID, ReceiverID: receiver.ID})
	assert.ErrorIs(t, err, domain.ErrPeriodNotOpen)

	listed, err := praise.ListByWindow(ctx, window)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestQuantificationRepo_OppositeDuplicateMarks(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepo(pool)
	periods := NewPeriodRepo(pool)
	praise := NewPraiseRepo(pool)
	quants := NewQuantificationRepo(pool)
	ctx := context.Background()

	giver := createTestUser(t, users, "giver", domain.RoleUser)
	receiver := createTestUser(t, users, "receiver", domain.RoleUser)
	q1 := createTestUser(t, users, "q1", domain.RoleQuantifier)
	q2 := createTestUser(t, users, "q2", domain.RoleQuantifier)
	period := createTestPeriod(t, periods, "Now", time.Now().Add(time.Hour))
	window := domain.Window{End: period.EndDate}

	a, err := praise.Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(period.ID), GiverID: giver.ID, ReceiverID: receiver.ID})
	require.NoError(t, err)
	b, err := praise.Create(ctx, domain.NewPraise{PeriodID: domain.ValidID(period.ID), GiverID: giver.ID, ReceiverID: receiver.ID})
	require.NoError(t, err)

	var rows []domain.Quantification
	for _, p := range []*domain.Praise{a, b} {
		for _, q := range []*domain.User{q1, q2} {
			rows = append(rows, domain.Quantification{PraiseID: p.ID, QuantifierID: q.ID})
		}
	}
	require.NoError(t, periods.StartQuantify(ctx, period.ID, window, rows))

	mark := func(praiseID, quantifierID, target uuid.UUID) error {
		_, err := quants.Submit(ctx, period.ID, praiseID, quantifierID, domain.DuplicateOutcome(target), &domain.DuplicateCheck{
			Window: window,
			Validate: func(receiverPraise []domain.Praise) error {
				return quantify.ValidateDuplicateTarget(receiverPraise, praiseID, target)
			},
		})
		return err
	}

	for range 10 {
		_, err := quants.Submit(ctx, period.ID, a.ID, q1.ID, domain.ScoreOutcome(1), nil)
		require.NoError(t, err)
		_, err = quants.Submit(ctx, period.ID, b.ID, q2.ID, domain.ScoreOutcome(1), nil)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		ready := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-ready
			errs[0] = mark(a.ID, q1.ID, b.ID)
		}()
		go func() {
			defer wg.Done()
			<-ready
			errs[1] = mark(b.ID, q2.ID, a.ID)
		}()
		close(ready)
		wg.Wait()

		failed := 0
		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrDuplicateCycleDetected)
				failed++
			}
		}
		assert.Equal(t, 1, failed, "exactly one of two opposite marks commits")
	}
}

func TestPraiseRepo_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPraiseRepo(pool)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrPraiseNotFound)
}
