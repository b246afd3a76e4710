// Package testutil builds a fully wired container backed by miniredis and the
// in-memory store.
package testutil

import (
	"sync"
	"testing"
	"time"

	"wavesight/internal/datastore/memstore"
	"wavesight/internal/interfaces"
	"wavesight/internal/models"
	"wavesight/internal/pkg/caching"
	"wavesight/internal/pkg/limiter"
	"wavesight/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/stretchr/testify/require"
)

const JWTSecret = "test-secret"

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type Env struct {
	Container *do.Injector
	Store     *memstore.Store
	Redis     *miniredis.Miniredis
	Clock     *Clock
}

// New wires every service. policy may be nil for the defaults.
func New(t testing.TB, policy *services.Policy) *Env {
	t.Helper()

	mr := miniredis.RunT(t)
	store := memstore.New()
	clock := NewClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	p := services.DefaultPolicy()
	if policy != nil {
		p = *policy
	}

	injector := do.New()
	do.ProvideNamedValue(injector, "envs", map[string]string{"JWT_SECRET": JWTSecret})
	do.ProvideValue[interfaces.Store](injector, store)
	do.ProvideValue(injector, p)
	do.ProvideValue(injector, services.Clock(clock.Now))

	for _, name := range []string{"redis-cache", "redis-cache-readonly", "redis-limiter", "redis-mutex", "redis-events"} {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		do.ProvideNamedValue[redis.UniversalClient](injector, name, client)
	}

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		client, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}
		return caching.NewCacheRedis(client, false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		client, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache-readonly")
		if err != nil {
			return nil, err
		}
		return caching.NewCacheRedis(client, false)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		client, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}
		return limiter.NewLimiter(client)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		client, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}
		return redsync.New(goredis.NewPool(client)), nil
	})

	services.Provide(injector)

	return &Env{Container: injector, Store: store, Redis: mr, Clock: clock}
}

// Profile seeds a user with the given tier and streak.
func (e *Env) Profile(tier string, streak int) *models.UserProfile {
	profile := &models.UserProfile{
		ID:            uuid.New(),
		Username:      "user-" + uuid.NewString()[:8],
		Tier:          tier,
		CurrentStreak: streak,
	}
	e.Store.PutProfile(profile)
	return profile
}

func Invoke[T any](t testing.TB, e *Env) T {
	t.Helper()
	v, err := do.Invoke[T](e.Container)
	require.NoError(t, err)
	return v
}
