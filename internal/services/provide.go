package services

import (
	"github.com/samber/do"
)

// Provide registers every service on the injector. Infrastructure (store,
// caches, redis clients, limiter, redsync) must be provided by the caller.
func Provide(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Authentication, error) {
		vs, err := do.InvokeNamed[map[string]string](i, "envs")
		if err != nil {
			return nil, err
		}
		return NewAuthentication(vs["JWT_SECRET"])
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceConfig, error) {
		return NewServiceConfig(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceProfile, error) {
		return NewServiceProfile(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceEarnings, error) {
		return NewServiceEarnings(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceRateLimit, error) {
		return NewServiceRateLimit(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceNotifier, error) {
		return NewServiceNotifier(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceConsensus, error) {
		return NewServiceConsensus(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceSubmission, error) {
		return NewServiceSubmission(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceValidation, error) {
		return NewServiceValidation(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceHeat, error) {
		return NewServiceHeat(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceReconcile, error) {
		return NewServiceReconcile(i)
	})
}
