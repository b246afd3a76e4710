package limiter

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestAllow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l, err := NewLimiter(client)
	require.NoError(t, err)

	ctx := context.Background()
	limit := redis_rate.PerMinute(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow(ctx, "limit:a", limit))
	}
	require.ErrorIs(t, l.Allow(ctx, "limit:a", limit), ErrRateLimited)
	require.NoError(t, l.Allow(ctx, "limit:b", limit))
}
