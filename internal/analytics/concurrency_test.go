package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nulzo/canteen-api/internal/store/lock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyChanges_ConcurrentTogglesKeepEveryUpdate(t *testing.T) {
	svc, _, _ := newTestService(t, at(2026, time.March, 5, 12, 0))
	ctx := context.Background()

	const workers = 40
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.ApplyChanges(ctx, Changes{MealBreakfast: {Old: false, New: true}}); err != nil {
				errs <- err
			}
			// every other worker also cancels a lunch that was never counted
			if i%2 == 0 {
				if _, err := svc.ApplyChanges(ctx, Changes{MealLunch: {Old: true, New: false}}); err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	c, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, c.BreakfastCount)
	assert.Equal(t, 0, c.LunchCount)
}

// runConcurrentRollups fires n rollups at once and returns their results.
func runConcurrentRollups(t *testing.T, svc Service, n int) []*RollupResult {
	t.Helper()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*RollupResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.EvaluateMonthlyRollup(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	return results
}

func assertSingleRollup(t *testing.T, results []*RollupResult) {
	t.Helper()
	created := 0
	for _, res := range results {
		if res.Created {
			created++
			continue
		}
		assert.Contains(t, []RollupReason{RollupInProgress, RollupAlreadyExists}, res.Reason)
	}
	assert.Equal(t, 1, created)
}

func TestEvaluateMonthlyRollup_ConcurrentCallsCreateOnce(t *testing.T) {
	svc, _, repo := newTestService(t, at(2026, time.April, 20, 21, 30))
	seedDaily(t, repo, "2026-03-10", 2, 3, 4)

	assertSingleRollup(t, runConcurrentRollups(t, svc, 20))

	all, err := repo.Counters().ListMonthly(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].BreakfastCount)
}

func TestEvaluateMonthlyRollup_ConcurrentCallsWithRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, _, repo := newTestService(t, at(2026, time.April, 20, 21, 30), WithLocker(lock.NewRedisLocker(client)))
	seedDaily(t, repo, "2026-03-10", 1, 0, 0)

	assertSingleRollup(t, runConcurrentRollups(t, svc, 20))

	all, err := repo.Counters().ListMonthly(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
	// the lock is released once the winner is done
	assert.False(t, mr.Exists(rollupLockKey))
}

func TestEvaluateMonthlyRollup_RedisLockHeldElsewhere(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := lock.NewRedisLocker(client)
	svc, _, _ := newTestService(t, at(2026, time.April, 20, 21, 30), WithLocker(locker))
	ctx := context.Background()

	// another instance is mid-rollup
	held, err := locker.Obtain(ctx, rollupLockKey, time.Minute)
	require.NoError(t, err)

	res, err := svc.EvaluateMonthlyRollup(ctx)
	require.NoError(t, err)
	assert.Equal(t, RollupInProgress, res.Reason)

	require.NoError(t, held.Release(ctx))
	res, err = svc.EvaluateMonthlyRollup(ctx)
	require.NoError(t, err)
	assert.True(t, res.Created)
}
