package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a live Redis; set REDIS_TEST_ADDR to run them.
func testStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	s := New(addr, "", 0)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Ping(context.Background()))
	return s
}

func TestLock_ExcludesSecondHolder(t *testing.T) {
	s := testStore(t)
	key := "reqmaster:test:" + t.Name()
	ctx := context.Background()

	unlock, err := s.Lock(ctx, key)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = s.Lock(short, key)
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	unlock2, err := s.Lock(ctx, key)
	require.NoError(t, err)
	unlock2()
}

func TestUnlock_LeavesForeignToken(t *testing.T) {
	s := testStore(t)
	key := "reqmaster:test:" + t.Name()
	ctx := context.Background()

	unlock, err := s.Lock(ctx, key)
	require.NoError(t, err)
	// simulate expiry and takeover by another holder
	require.NoError(t, s.Rdb.Set(ctx, key, "someone-else", time.Minute).Err())
	unlock()

	v, err := s.Rdb.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
	require.NoError(t, s.Rdb.Del(ctx, key).Err())
}

func TestTurnLockTTL(t *testing.T) {
	// reply plus summary at the default 90s timeout
	assert.Equal(t, 210*time.Second, TurnLockTTL(90*time.Second))
	assert.Greater(t, TurnLockTTL(90*time.Second), 2*90*time.Second)
	assert.Equal(t, DefaultLockTTL, TurnLockTTL(10*time.Second))
	assert.Equal(t, DefaultLockTTL, TurnLockTTL(0))
}
