package handler

import (
	"wavesight/internal/pkg"
	"wavesight/internal/services"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupSubmission struct {
	container *do.Injector
}

func (gr *groupSubmission) Create(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var input services.CreateSubmissionInput
	if err := c.Bind(&input); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceSubmission, err := do.Invoke[*services.ServiceSubmission](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	submission, earning, err := serviceSubmission.CreateSubmission(ctx, user.ID, input)
	if err != nil {
		return restAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"submission": submission,
		"earning":    earning,
	}, nil)
}

func (gr *groupSubmission) Eligible(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceSubmission, err := do.Invoke[*services.ServiceSubmission](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit := pkg.ParseLimit(c.QueryParam("limit"), services.ELIGIBLE_DEFAULT_LIMIT, services.ELIGIBLE_MAX_LIMIT)
	submissions, err := serviceSubmission.GetEligibleForVoting(ctx, user.ID, limit)
	return restAbort(c, submissions, err)
}

func (gr *groupSubmission) Mine(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceSubmission, err := do.Invoke[*services.ServiceSubmission](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit := pkg.ParseLimit(c.QueryParam("limit"), services.LIST_DEFAULT_LIMIT, services.LIST_MAX_LIMIT)
	submissions, err := serviceSubmission.ListUserSubmissions(ctx, user.ID, limit)
	return restAbort(c, submissions, err)
}

func (gr *groupSubmission) Show(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceSubmission, err := do.Invoke[*services.ServiceSubmission](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	submission, err := serviceSubmission.GetSubmission(c.Request().Context(), id)
	return restAbort(c, submission, err)
}

type voteRequest struct {
	Decision string `json:"decision"`
}

func (gr *groupSubmission) Vote(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceValidation, err := do.Invoke[*services.ServiceValidation](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	result, err := serviceValidation.CastVote(ctx, user.ID, id, req.Decision)
	if err != nil {
		return restAbort(c, nil, err)
	}

	return httpx.RestAbort(c, result, nil)
}

func (gr *groupSubmission) StatusSummary(c echo.Context) error {
	serviceSubmission, err := do.Invoke[*services.ServiceSubmission](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	summary, err := serviceSubmission.StatusSummary(c.Request().Context())
	return restAbort(c, summary, err)
}
