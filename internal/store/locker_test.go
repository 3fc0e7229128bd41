package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

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
			unlock, err := m.Lock(ctx, "task:a")
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

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, m.size())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := m.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := m.Lock(ctx, "b")
		if err == nil {
			unlockB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b waited for a")
	}
}

func TestKeyedMutex_ContextCancelledWhileWaiting(t *testing.T) {
	m := NewKeyedMutex()

	unlock, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // idempotent
	assert.Equal(t, 0, m.size())
}

type fakeRedis struct {
	mu       sync.Mutex
	held     map[string]string
	setCalls int
	evalErr  error
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if _, ok := f.held[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.held[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[keys[0]] == args[0].(string) {
		delete(f.held, keys[0])
		return redis.NewCmdResult(int64(1), f.evalErr)
	}
	return redis.NewCmdResult(int64(0), f.evalErr)
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	rdb := &fakeRedis{held: map[string]string{}}
	l := NewRedisLocker(rdb, time.Second)

	unlock, err := l.Lock(context.Background(), "task:1")
	require.NoError(t, err)
	assert.Contains(t, rdb.held, "taskboard:lock:task:1")

	unlock()
	assert.NotContains(t, rdb.held, "taskboard:lock:task:1")
}

func TestRedisLocker_WaitsForOtherInstance(t *testing.T) {
	rdb := &fakeRedis{held: map[string]string{"taskboard:lock:task:1": "other-instance"}}
	l := NewRedisLocker(rdb, time.Second)
	l.poll = time.Millisecond

	go func() {
		time.Sleep(10 * time.Millisecond)
		rdb.mu.Lock()
		delete(rdb.held, "taskboard:lock:task:1")
		rdb.mu.Unlock()
	}()

	unlock, err := l.Lock(context.Background(), "task:1")
	require.NoError(t, err)
	defer unlock()

	rdb.mu.Lock()
	defer rdb.mu.Unlock()
	assert.Greater(t, rdb.setCalls, 1)
}

func TestRedisLocker_TimesOut(t *testing.T) {
	rdb := &fakeRedis{held: map[string]string{"taskboard:lock:task:1": "other-instance"}}
	l := NewRedisLocker(rdb, time.Second)
	l.poll = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	_, err := l.Lock(ctx, "task:1")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, l.local.size())
}
