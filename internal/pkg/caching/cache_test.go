package caching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestUseCacheWithRO(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c, err := NewCacheRedis(client, false)
	require.NoError(t, err)

	ctx := context.Background()
	calls := 0
	callback := func() (map[string]string, error) {
		calls++
		return map[string]string{"APPROVAL_THRESHOLD": "3"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := UseCacheWithRO(ctx, c, c, "config:all", time.Minute, callback)
		require.NoError(t, err)
		require.Equal(t, "3", v["APPROVAL_THRESHOLD"])
	}
	require.Equal(t, 1, calls)

	failing := func() (int, error) { return 0, errors.New("boom") }
	_, err = UseCache(ctx, c, "missing", time.Minute, failing)
	require.EqualError(t, err, "boom")
	require.False(t, mr.Exists("missing"))
}

func TestDeleteKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, mr.Set("config:all", "x"))
	require.NoError(t, mr.Set("config:approval_threshold", "x"))
	require.NoError(t, mr.Set("user_profile:1", "x"))

	n, err := DeleteKeys(context.Background(), client, "config:*")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.True(t, mr.Exists("user_profile:1"))
	require.False(t, mr.Exists("config:all"))
}
