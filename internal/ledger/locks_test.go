package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(context.Background(), "2026-01-01")
			require.NoError(t, err)
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
			unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxSeen)
	require.Zero(t, m.Size())
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	m := NewKeyedMutex()
	unlock, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)

	other, err := m.Lock(context.Background(), "b")
	require.NoError(t, err)
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "a")
	require.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	unlock()
	require.Zero(t, m.Size())
}

func TestRedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client, time.Second, 100*time.Millisecond, nil)
	unlock, err := locker.Lock(context.Background(), "ledger:day:2026-01-01:lock")
	require.NoError(t, err)
	require.True(t, mr.Exists("ledger:day:2026-01-01:lock"))

	_, err = locker.Lock(context.Background(), "ledger:day:2026-01-01:lock")
	require.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	require.False(t, mr.Exists("ledger:day:2026-01-01:lock"))

	chain := ChainLocker{NewKeyedMutex(), locker}
	release, err := chain.Lock(context.Background(), "k")
	require.NoError(t, err)
	release()
}
