package cron

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryLockStore) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	if v, ok := m.data[key]; ok && v == value {
		delete(m.data, key)
		return true, nil
	}
	return false, nil
}

func TestRedisLockExclusiveAcrossInstances(t *testing.T) {
	t.Setenv("WORKER_ID", "cron-a")
	store := newMemoryLockStore()
	ctx := context.Background()

	first, err := NewRedisLock(store, "lock:csv", 15*time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "lock:csv", 15*time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(store.data["lock:csv"], "cron-a:"))
	assert.Equal(t, 15*time.Minute, store.ttls["lock:csv"])

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Release(ctx), "non-owner release is a no-op")
	assert.Contains(t, store.data, "lock:csv")

	require.NoError(t, first.Release(ctx))
	assert.NotContains(t, store.data, "lock:csv")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockKeepsLeaseTakenAfterExpiry(t *testing.T) {
	store := newMemoryLockStore()
	ctx := context.Background()

	slow, err := NewRedisLock(store, "lock:csv", time.Minute)
	require.NoError(t, err)
	ok, err := slow.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	delete(store.data, "lock:csv")
	store.data["lock:csv"] = "cron-b:other"

	require.NoError(t, slow.Release(ctx))
	assert.Equal(t, "cron-b:other", store.data["lock:csv"], "a lease taken by another worker must survive")
	require.NoError(t, slow.Release(ctx), "second release is a no-op")
}

func TestNewRedisLockDefaults(t *testing.T) {
	_, err := NewRedisLock(nil, "k", 0)
	require.Error(t, err)
	_, err = NewRedisLock(newMemoryLockStore(), "", 0)
	require.Error(t, err)

	lock, err := NewRedisLock(newMemoryLockStore(), "k", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)
}
