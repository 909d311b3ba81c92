package redislock

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client backed by miniredis so the tests
// need no real Redis server.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	return client, mr
}

func cleanupTestRedis(client *redis.Client, mr *miniredis.Miniredis) {
	if client != nil {
		client.Close()
	}
	if mr != nil {
		mr.Close()
	}
}

func TestLockTable(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	r := NewRedis(client)

	// First registration takes the lease.
	locked, err := r.LockTable(7, "reg-1")
	require.NoError(t, err)
	assert.True(t, locked)

	// A second registration cannot while the lease is held.
	locked, err = r.LockTable(7, "reg-2")
	require.NoError(t, err)
	assert.False(t, locked)

	// Other tables are independent.
	locked, err = r.LockTable(8, "reg-2")
	require.NoError(t, err)
	assert.True(t, locked)

	// After release the table can be leased again.
	require.NoError(t, r.UnlockTable(7, "reg-1"))
	locked, err = r.LockTable(7, "reg-3")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestUnlockTableOnlyReleasesOwnLease(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	r := NewRedis(client)

	locked, err := r.LockTable(7, "reg-1")
	require.NoError(t, err)
	assert.True(t, locked)

	// A different registration's unlock is a no-op.
	require.NoError(t, r.UnlockTable(7, "reg-2"))

	val, err := client.Get(context.Background(), "table_lock:7").Result()
	require.NoError(t, err)
	assert.Equal(t, "reg-1", val)

	// Unlocking an unleased table is also a no-op.
	require.NoError(t, r.UnlockTable(99, "reg-1"))
}

func TestCheckTableAvailability(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	r := NewRedis(client)

	available, err := r.CheckTableAvailability(7)
	require.NoError(t, err)
	assert.True(t, available)

	_, err = r.LockTable(7, "reg-1")
	require.NoError(t, err)

	available, err = r.CheckTableAvailability(7)
	require.NoError(t, err)
	assert.False(t, available)
}

func TestLeaseExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	r := NewRedis(client)

	locked, err := r.LockTable(7, "reg-1")
	require.NoError(t, err)
	assert.True(t, locked)

	// miniredis advances TTLs manually.
	mr.FastForward(r.getTableLockDuration())

	locked, err = r.LockTable(7, "reg-2")
	require.NoError(t, err)
	assert.True(t, locked)
}
