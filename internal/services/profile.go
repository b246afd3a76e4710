package services

import (
	"context"
	"database/sql"
	"errors"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"
	"wavesight/internal/pkg/caching"

	"github.com/google/uuid"
	"github.com/samber/do"
)

type ServiceProfile struct {
	container     *do.Injector
	store         interfaces.Store
	cache         caching.Cache
	readonlyCache caching.ReadOnlyCache
}

func NewServiceProfile(container *do.Injector) (*ServiceProfile, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceProfile{container, store, cache, readonlyCache}, nil
}

// FindProfile returns the cached profile. Unknown users are a ForeignKey error.
func (service *ServiceProfile) FindProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	callback := func() (*models.UserProfile, error) {
		return service.store.FindProfile(ctx, userID)
	}

	profile, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUserProfile(userID), CACHE_TTL_5_MINS, callback)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, foreignKeyErrorf("user profile %s not found", userID)
		}
		return nil, err
	}

	return profile, nil
}
