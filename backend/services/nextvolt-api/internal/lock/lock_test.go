package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "station:42", StationKey(42))
	assert.Equal(t, "user:abc", UserKey("abc"))
}

func exerciseMutualExclusion(t *testing.T, l Locker) {
	t.Helper()

	const workers = 16
	var (
		wg      sync.WaitGroup
		inside  atomic.Int32
		counter atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "station:1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			assert.Equal(t, int32(1), inside.Add(1))
			v := counter.Load()
			time.Sleep(time.Millisecond)
			counter.Store(v + 1)
			inside.Add(-1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(workers), counter.Load())
}

func TestKeyedMutexExclusion(t *testing.T) {
	m := NewKeyedMutex()
	exerciseMutualExclusion(t, m)
	assert.Zero(t, m.Len(), "idle keys are dropped")
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	unlockA, err := m.Lock(context.Background(), "station:1")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := m.Lock(ctx, "station:2")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	m := NewKeyedMutex()
	unlock, err := m.Lock(context.Background(), "user:u1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "user:u1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Zero(t, m.Len())

	again, err := m.Lock(context.Background(), "user:u1")
	require.NoError(t, err)
	again()
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLockerExclusion(t *testing.T) {
	_, client := newTestRedis(t)
	exerciseMutualExclusion(t, NewRedisLocker(client, time.Second, zap.NewNop()))
}

func TestRedisLockerWaitsAndReleases(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLocker(client, time.Second, zap.NewNop())

	unlock, err := l.Lock(context.Background(), "station:7")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"station:7"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "station:7")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"station:7"))
}

func TestRedisLockerStaleUnlockKeepsNewHolder(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLocker(client, time.Second, zap.NewNop())

	stale, err := l.Lock(context.Background(), "user:u1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := l.Lock(context.Background(), "user:u1")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists(keyPrefix+"user:u1"), "stale release must not drop the new holder")

	fresh()
	assert.False(t, mr.Exists(keyPrefix+"user:u1"))
}
