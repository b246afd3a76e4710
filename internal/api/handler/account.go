package handler

import (
	"wavesight/internal/pkg"
	"wavesight/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAccount struct {
	container *do.Injector
}

func (gr *groupAccount) Me(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceProfile, err := do.Invoke[*services.ServiceProfile](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	serviceRateLimit, err := do.Invoke[*services.ServiceRateLimit](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	profile, err := serviceProfile.FindProfile(ctx, user.ID)
	if err != nil {
		return restAbort(c, nil, err)
	}

	rateLimit, err := serviceRateLimit.CheckRateLimit(ctx, user.ID)
	if err != nil {
		return restAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"user":       user,
		"profile":    profile,
		"rate_limit": rateLimit,
	}, nil)
}

func (gr *groupAccount) Earnings(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceEarnings, err := do.Invoke[*services.ServiceEarnings](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit := pkg.ParseLimit(c.QueryParam("limit"), services.LIST_DEFAULT_LIMIT, services.LIST_MAX_LIMIT)
	earnings, err := serviceEarnings.ListEarnings(ctx, user.ID, limit)
	if err != nil {
		return restAbort(c, nil, err)
	}

	summary, err := serviceEarnings.Summary(ctx, user.ID)
	if err != nil {
		return restAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"earnings": earnings,
		"summary":  summary,
	}, nil)
}

func (gr *groupAccount) RateLimit(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceRateLimit, err := do.Invoke[*services.ServiceRateLimit](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	status, err := serviceRateLimit.CheckRateLimit(ctx, user.ID)
	return restAbort(c, status, err)
}
