// Package container wires infrastructure and services for the binaries.
package container

import (
	"database/sql"
	"os"

	"wavesight/internal/datastore"
	"wavesight/internal/datastore/memstore"
	"wavesight/internal/interfaces"
	"wavesight/internal/pkg/caching"
	"wavesight/internal/pkg/limiter"
	"wavesight/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

var optionalEnvs = []string{
	"API_MODE",
	"API_ORIGINS",
	"DB_PASSWORD",
	"DB_DSN_READONLY",
	"DB_PASSWORD_READONLY",
	"NOTIFY_WEBHOOK_URL",
	services.CONFIG_APPROVAL_THRESHOLD,
	services.CONFIG_REJECTION_THRESHOLD,
	services.CONFIG_HOURLY_VALIDATION_LIMIT,
	services.CONFIG_DAILY_VALIDATION_LIMIT,
	services.CONFIG_SUBMISSION_BASE_REWARD,
	services.CONFIG_VALIDATION_REWARD,
	services.CONFIG_APPROVAL_BONUS,
	services.CONFIG_MAX_SUBMISSION_REWARD,
	services.CONFIG_AUTO_REJECT_AFTER_HOURS,
	services.CONFIG_VOTE_BURST_PER_MINUTE,
}

// NewContainer registers every provider. store selects postgres or the
// in-process memory store; the latter also starts an embedded redis when no
// REDIS_CACHE is configured.
func NewContainer(vs map[string]string, store string) *do.Injector {
	injector := do.New()
	for _, key := range optionalEnvs {
		if _, ok := vs[key]; !ok {
			vs[key] = os.Getenv(key)
		}
	}

	if vs["API_MODE"] == "" {
		vs["API_MODE"] = "production"
	}
	if vs["API_ORIGINS"] == "" {
		vs["API_ORIGINS"] = "*"
	}

	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (services.Policy, error) {
		return services.PolicyFromEnv(vs)
	})

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(vs["DB_DSN"]),
			pgdriver.WithPassword(vs["DB_PASSWORD"]),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.ProvideNamed(injector, "db-readonly", func(i *do.Injector) (*bun.DB, error) {
		if vs["DB_DSN_READONLY"] == "" {
			return do.Invoke[*bun.DB](i)
		}

		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(vs["DB_DSN_READONLY"]),
			pgdriver.WithPassword(vs["DB_PASSWORD_READONLY"]),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Store, error) {
		if store == StoreMemory {
			zap.L().Warn("using the in-memory store, data is lost on exit")
			return memstore.New(), nil
		}

		primary, err := do.Invoke[*bun.DB](i)
		if err != nil {
			return nil, err
		}

		readonly, err := do.InvokeNamed[*bun.DB](i, "db-readonly")
		if err != nil {
			return nil, err
		}

		return datastore.NewStore(primary, readonly), nil
	})

	var embedded *miniredis.Miniredis
	if store == StoreMemory && os.Getenv("REDIS_CACHE") == "" && os.Getenv("CLUSTER_REDIS_CACHE") == "" {
		embedded = miniredis.NewMiniRedis()
		if err := embedded.Start(); err != nil {
			zap.L().Fatal("start embedded redis", zap.Error(err))
		}
		zap.L().Warn("using an embedded redis", zap.String("addr", embedded.Addr()))
	}

	provideRedis := func(name, url, clusterURL string) {
		do.ProvideNamed(injector, name, func(i *do.Injector) (redis.UniversalClient, error) {
			if embedded != nil {
				return redis.NewClient(&redis.Options{Addr: embedded.Addr()}), nil
			}

			if clusterURL != "" {
				clusterOpts, err := redis.ParseClusterURL(clusterURL)
				if err != nil {
					return nil, err
				}
				return redis.NewClusterClient(clusterOpts), nil
			}
			return db.InitRedis(&db.RedisConfig{
				URL: url,
			})
		})
	}

	provideRedis("redis-cache", os.Getenv("REDIS_CACHE"), os.Getenv("CLUSTER_REDIS_CACHE"))
	provideRedis("redis-limiter", os.Getenv("REDIS_LIMITER"), os.Getenv("CLUSTER_REDIS_LIMITER"))
	provideRedis("redis-mutex", os.Getenv("REDIS_MUTEX"), os.Getenv("CLUSTER_REDIS_MUTEX"))
	provideRedis("redis-events", os.Getenv("REDIS_EVENTS"), os.Getenv("CLUSTER_REDIS_EVENTS"))

	do.ProvideNamed(injector, "redis-cache-readonly", func(i *do.Injector) (redis.UniversalClient, error) {
		if embedded != nil {
			return redis.NewClient(&redis.Options{Addr: embedded.Addr()}), nil
		}

		var clusterOpts *redis.ClusterOptions
		var err error
		clusterCacheRedisReadOnlyURL := os.Getenv("CLUSTER_REDIS_CACHE_READONLY")
		if clusterCacheRedisReadOnlyURL != "" {
			clusterOpts, err = redis.ParseClusterURL(clusterCacheRedisReadOnlyURL)
		} else {
			clusterCacheRedisURL := os.Getenv("CLUSTER_REDIS_CACHE")
			if clusterCacheRedisURL != "" {
				clusterOpts, err = redis.ParseClusterURL(clusterCacheRedisURL)
			}
		}

		if err != nil {
			return nil, err
		}
		if clusterOpts != nil {
			clusterOpts.ReadOnly = true
			return redis.NewClusterClient(clusterOpts), nil
		}

		url := os.Getenv("REDIS_CACHE_READONLY")
		if url == "" {
			url = os.Getenv("REDIS_CACHE")
		}
		return db.InitRedis(&db.RedisConfig{
			URL: url,
		})
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache-readonly")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}

		return limiter.NewLimiter(dbRedis)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		return redsync.New(pool), nil
	})

	services.Provide(injector)

	return injector
}
