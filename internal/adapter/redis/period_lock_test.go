package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucecodee/praise/internal/domain"
)

func TestPeriodLock(t *testing.T) {
	client := setupTestClient(t)
	lock := NewPeriodLock(client)
	ctx := context.Background()
	periodID := uuid.New()

	release, err := lock.Lock(ctx, periodID)
	require.NoError(t, err)

	_, err = lock.Lock(ctx, periodID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	other, err := lock.Lock(ctx, uuid.New())
	require.NoError(t, err, "locks are per period")
	other()

	release()
	again, err := lock.Lock(ctx, periodID)
	require.NoError(t, err)
	again()
}

func TestPeriodLock_ReleaseKeepsForeignLock(t *testing.T) {
	client := setupTestClient(t)
	lock := NewPeriodLock(client)
	lock.ttl = 100 * time.Millisecond
	ctx := context.Background()
	periodID := uuid.New()

	staleRelease, err := lock.Lock(ctx, periodID)
	require.NoError(t, err)

	// First holder's lock expires and a second holder takes over.
	require.Eventually(t, func() bool {
		n, err := client.Exists(ctx, periodLockKey(periodID)).Result()
		return err == nil && n == 0
	}, 2*time.Second, 20*time.Millisecond)
	lock.ttl = periodLockTTL
	_, err = lock.Lock(ctx, periodID)
	require.NoError(t, err)

	staleRelease()

	_, err = lock.Lock(ctx, periodID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "stale release must not free the new holder's lock")
}

func TestPeriodLock_RedisDown(t *testing.T) {
	lock := NewPeriodLock(unreachableClient(t))

	_, err := lock.Lock(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidTransition)
}
