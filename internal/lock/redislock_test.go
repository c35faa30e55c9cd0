package lock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/lock"
)

func newLockClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestWithLockSerializesHolders(t *testing.T) {
	_, client := newLockClient(t)
	locker := lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var order []string
	var mu sync.Mutex
	firstHeld := make(chan struct{})
	releaseFirst := make(chan struct{})

	go func() {
		err := locker.WithLock(ctx, "serial", 100*time.Millisecond, func(context.Context) error {
			mu.Lock()
			order = append(order, "first")
			mu.Unlock()
			close(firstHeld)
			<-releaseFirst
			return nil
		})
		require.NoError(t, err)
	}()

	<-firstHeld

	go func() {
		err := locker.WithLock(ctx, "serial", 100*time.Millisecond, func(context.Context) error {
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}()

	close(releaseFirst)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"first", "second"}, order)
}

func TestWithLockRetriesWithBackoff(t *testing.T) {
	mr, client := newLockClient(t)
	locker := lock.Locker{R: client, RetryBackoff: 10 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Somebody else holds the key; acquisition has to poll until the TTL
	// on the foreign claim lapses.
	require.NoError(t, client.Set(ctx, "contended", "foreign", 0).Err())
	go func() {
		time.Sleep(40 * time.Millisecond)
		mr.Del("contended")
	}()

	start := time.Now()
	err := locker.WithLock(ctx, "contended", time.Second, func(context.Context) error { return nil })
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWithLockGivesUpWhenContextEnds(t *testing.T) {
	_, client := newLockClient(t)
	locker := lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}

	require.NoError(t, client.Set(context.Background(), "stuck", "foreign", 0).Err())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := locker.WithLock(ctx, "stuck", time.Second, func(context.Context) error {
		t.Fatal("callback must not run while the key is foreign-held")
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithLockReleasesAfterCallbackError(t *testing.T) {
	_, client := newLockClient(t)
	locker := lock.Locker{R: client}
	ctx := context.Background()

	boom := errors.New("boom")
	err := locker.WithLock(ctx, "flaky", time.Second, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	// The key must be gone so the next holder acquires immediately.
	n, err := client.Exists(ctx, "flaky").Result()
	require.NoError(t, err)
	require.Zero(t, n)
}
