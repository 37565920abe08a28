package redisclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rdb, err := NewRedisClient(ctx, mr.Addr(), "", "")
	require.NoError(t, err)
	defer rdb.Close()

	_, err = NewRedisClient(ctx, "127.0.0.1:1", "", "")
	assert.Error(t, err)
}

func TestSlotLock_ReleasesAfterRun(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, mr.Addr(), "", "")
	require.NoError(t, err)
	defer rdb.Close()

	locker := NewRedisSlotLocker(rdb, 5*time.Second)
	doctorID := uuid.New()
	at := time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC)
	key := SlotLockKey(doctorID, at)

	ran := false
	err = locker.WithSlotLock(ctx, doctorID, at, func(ctx context.Context) error {
		ran = true
		assert.True(t, mr.Exists(key), "lock key held while running")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists(key), "lock key released")
}

func TestSlotLock_PropagatesCallbackError(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, mr.Addr(), "", "")
	require.NoError(t, err)
	defer rdb.Close()

	locker := NewRedisSlotLocker(rdb, time.Second)
	boom := errors.New("boom")

	err = locker.WithSlotLock(ctx, uuid.New(), time.Now(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestSlotLock_ContendedSlotIsRejected(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, mr.Addr(), "", "")
	require.NoError(t, err)
	defer rdb.Close()

	locker := NewRedisSlotLocker(rdb, 5*time.Second)
	doctorID := uuid.New()
	at := time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC)

	inside := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = locker.WithSlotLock(ctx, doctorID, at, func(ctx context.Context) error {
			close(inside)
			<-release
			return nil
		})
	}()

	<-inside
	err = locker.WithSlotLock(ctx, doctorID, at, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	// a different instant of the same doctor is independent
	err = locker.WithSlotLock(ctx, doctorID, at.Add(time.Hour), func(ctx context.Context) error { return nil })
	assert.NoError(t, err)

	close(release)
	wg.Wait()

	err = locker.WithSlotLock(ctx, doctorID, at, func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestSlotLock_DoesNotDeleteForeignToken(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, mr.Addr(), "", "")
	require.NoError(t, err)
	defer rdb.Close()

	locker := NewRedisSlotLocker(rdb, 5*time.Second)
	doctorID := uuid.New()
	at := time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC)
	key := SlotLockKey(doctorID, at)

	err = locker.WithSlotLock(ctx, doctorID, at, func(ctx context.Context) error {
		// simulate expiry and takeover by another holder
		require.NoError(t, mr.Set(key, "someone-else"))
		return nil
	})
	require.NoError(t, err)

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, mr.Addr(), "", "")
	require.NoError(t, err)
	defer rdb.Close()

	limiter := NewRedisRateLimiter(rdb, "booking", 3, time.Minute)

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "patient-1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "patient-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)

	// other keys have their own window
	d, err = limiter.Allow(ctx, "patient-2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	mr.FastForward(time.Minute + time.Second)

	d, err = limiter.Allow(ctx, "patient-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRateLimiter_ConcurrentHitsNeverExceedLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, mr.Addr(), "", "")
	require.NoError(t, err)
	defer rdb.Close()

	limiter := NewRedisRateLimiter(rdb, "booking", 5, time.Minute)

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.Allow(ctx, "ip-10.0.0.1")
			if err == nil && d.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), allowed)
}
