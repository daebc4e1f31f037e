package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/infrastructure/lock"
)

// ──────────────────────────────────────────────────────────────────────────────
// MemoryLocker
// ──────────────────────────────────────────────────────────────────────────────

func TestMemoryLocker_SerializesSameItem(t *testing.T) {
	l := lock.NewMemoryLocker()
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(context.Background(), "milk")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.Size(), "las claves se liberan al terminar")
}

func TestMemoryLocker_DifferentItemsDoNotBlock(t *testing.T) {
	l := lock.NewMemoryLocker()
	releaseA, err := l.Lock(context.Background(), "milk")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	releaseB, err := l.Lock(ctx, "coffee")
	require.NoError(t, err)
	releaseB()
}

func TestMemoryLocker_HonorsContext(t *testing.T) {
	l := lock.NewMemoryLocker()
	release, err := l.Lock(context.Background(), "milk")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "milk")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release() // idempotente
	assert.Equal(t, 0, l.Size())
}

// ──────────────────────────────────────────────────────────────────────────────
// RedisLocker
// ──────────────────────────────────────────────────────────────────────────────

func newRedisLocker(t *testing.T, wait time.Duration) (*lock.RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return lock.NewRedisLocker(rdb, 5*time.Second, wait, nil), mr
}

func TestRedisLocker_ObtainAndRelease(t *testing.T) {
	l, mr := newRedisLocker(t, 0)

	release, err := l.Lock(context.Background(), "milk")
	require.NoError(t, err)
	assert.True(t, mr.Exists("cafeteria:lock:item:milk"))

	release()
	assert.False(t, mr.Exists("cafeteria:lock:item:milk"))
}

func TestRedisLocker_HeldLockIsNotObtained(t *testing.T) {
	l, _ := newRedisLocker(t, 100*time.Millisecond)

	release, err := l.Lock(context.Background(), "milk")
	require.NoError(t, err)
	defer release()

	_, err = l.Lock(context.Background(), "milk")
	assert.ErrorIs(t, err, domain.ErrLockNotObtained)

	other, err := l.Lock(context.Background(), "coffee")
	require.NoError(t, err)
	other()
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	l, _ := newRedisLocker(t, 2*time.Second)

	release, err := l.Lock(context.Background(), "milk")
	require.NoError(t, err)
	go func() {
		time.Sleep(100 * time.Millisecond)
		release()
	}()

	second, err := l.Lock(context.Background(), "milk")
	require.NoError(t, err)
	second()
}
