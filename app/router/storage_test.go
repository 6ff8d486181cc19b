package router

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return NewRedisStorage(client), mr
}

func TestRedisStorageSetGet(t *testing.T) {
	storage, mr := setupTestStorage(t)
	defer mr.Close()

	t.Run("round trips a value", func(t *testing.T) {
		err := storage.Set("limiter:10.0.0.1", []byte("3"), 0)
		require.NoError(t, err)

		val, err := storage.Get("limiter:10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, []byte("3"), val)
	})

	t.Run("missing key returns nil without error", func(t *testing.T) {
		val, err := storage.Get("limiter:missing")
		require.NoError(t, err)
		assert.Nil(t, val)
	})

	t.Run("overwrites an existing value", func(t *testing.T) {
		require.NoError(t, storage.Set("counter", []byte("1"), 0))
		require.NoError(t, storage.Set("counter", []byte("2"), 0))

		val, err := storage.Get("counter")
		require.NoError(t, err)
		assert.Equal(t, []byte("2"), val)
	})
}

func TestRedisStorageExpiry(t *testing.T) {
	storage, mr := setupTestStorage(t)
	defer mr.Close()

	t.Run("expired keys vanish", func(t *testing.T) {
		err := storage.Set("window", []byte("9"), time.Second)
		require.NoError(t, err)

		val, err := storage.Get("window")
		require.NoError(t, err)
		assert.Equal(t, []byte("9"), val)

		mr.FastForward(2 * time.Second)

		val, err = storage.Get("window")
		require.NoError(t, err)
		assert.Nil(t, val)
	})

	t.Run("zero expiration means no expiry", func(t *testing.T) {
		err := storage.Set("pinned", []byte("v"), 0)
		require.NoError(t, err)

		mr.FastForward(time.Hour)

		val, err := storage.Get("pinned")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), val)
	})
}

func TestRedisStorageDelete(t *testing.T) {
	storage, mr := setupTestStorage(t)
	defer mr.Close()

	require.NoError(t, storage.Set("gone", []byte("x"), 0))
	require.NoError(t, storage.Delete("gone"))

	val, err := storage.Get("gone")
	require.NoError(t, err)
	assert.Nil(t, val)

	// Deleting an absent key is not an error
	assert.NoError(t, storage.Delete("never-existed"))
}

func TestRedisStorageReset(t *testing.T) {
	storage, mr := setupTestStorage(t)
	defer mr.Close()

	require.NoError(t, storage.Set("a", []byte("1"), 0))
	require.NoError(t, storage.Set("b", []byte("2"), 0))

	require.NoError(t, storage.Reset())

	for _, key := range []string{"a", "b"} {
		val, err := storage.Get(key)
		require.NoError(t, err)
		assert.Nil(t, val)
	}
}

func TestRedisStorageWithContext(t *testing.T) {
	storage, mr := setupTestStorage(t)
	defer mr.Close()

	ctx := context.Background()

	require.NoError(t, storage.SetWithContext(ctx, "ctx-key", []byte("v"), 0))

	val, err := storage.GetWithContext(ctx, "ctx-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, storage.DeleteWithContext(ctx, "ctx-key"))

	val, err = storage.GetWithContext(ctx, "ctx-key")
	require.NoError(t, err)
	assert.Nil(t, val)

	t.Run("cancelled context aborts the call", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := storage.GetWithContext(cancelled, "any")
		assert.Error(t, err)
	})
}

func TestRedisStorageClose(t *testing.T) {
	storage, mr := setupTestStorage(t)
	defer mr.Close()

	// Close leaves the shared client untouched
	require.NoError(t, storage.Close())

	require.NoError(t, storage.Set("still-alive", []byte("1"), 0))
	val, err := storage.Get("still-alive")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)
}
