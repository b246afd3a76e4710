package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"wavesight/internal/interfaces"
	"wavesight/internal/pkg/caching"

	"github.com/samber/do"
	"go.uber.org/zap"
)

type ServiceConfig struct {
	container     *do.Injector
	store         interfaces.Store
	cache         caching.Cache
	readonlyCache caching.ReadOnlyCache
	defaults      Policy
}

func NewServiceConfig(container *do.Injector) (*ServiceConfig, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readOnlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	defaults, err := do.Invoke[Policy](container)
	if err != nil {
		defaults = DefaultPolicy()
	}

	return &ServiceConfig{container, store, cache, readOnlyCache, defaults}, nil
}

func (service *ServiceConfig) GetStringConfig(ctx context.Context, key string, defaultValue string) (string, error) {
	callback := func() (string, error) {
		config, err := service.store.FindConfig(ctx, key)
		if err != nil {
			return defaultValue, err
		}
		return config.Value, nil
	}

	value, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyConfig(key), CACHE_TTL_5_MINS, callback)
	if err != nil {
		return defaultValue, err
	}

	return value, nil
}

func (service *ServiceConfig) GetIntConfig(ctx context.Context, key string, defaultValue int) (int, error) {
	value, err := service.GetStringConfig(ctx, key, "")
	if err != nil {
		return defaultValue, err
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, err
	}

	return intValue, nil
}

// Policy returns the env defaults overridden by the config table.
func (service *ServiceConfig) Policy(ctx context.Context) Policy {
	callback := func() (map[string]string, error) {
		configs, err := service.store.ListConfigs(ctx)
		if err != nil {
			return nil, err
		}

		values := make(map[string]string, len(configs))
		for _, c := range configs {
			values[c.Key] = c.Value
		}
		return values, nil
	}

	policy := service.defaults
	values, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyConfigs(), CACHE_TTL_5_MINS, callback)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			zap.L().Warn("load config overrides", zap.Error(err))
		}
		return policy
	}

	override := policy
	if err := override.apply(values); err != nil {
		zap.L().Warn("invalid config override", zap.Error(err))
		return policy
	}
	if err := override.Validate(); err != nil {
		zap.L().Warn("invalid config override", zap.Error(err))
		return policy
	}

	return override
}
