package handler

import (
	"net/http"

	"wavesight/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

// groupRPC keeps the function-call endpoints the web client already uses.
// They answer with bare JSON bodies instead of the REST envelope.
type groupRPC struct {
	container *do.Injector
}

type rpcError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func rpcAbort(c echo.Context, err error) error {
	setRetryAfter(c, err)
	return c.JSON(statusCode(err), rpcError{Error: err.Error()})
}

func (gr *groupRPC) CheckRateLimit(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := authUser(c)
	if !ok {
		return rpcAbort(c, services.ErrNotAuthenticated)
	}

	serviceRateLimit, err := do.Invoke[*services.ServiceRateLimit](gr.container)
	if err != nil {
		return rpcAbort(c, err)
	}

	status, err := serviceRateLimit.CheckRateLimit(ctx, user)
	if err != nil {
		return rpcAbort(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

func (gr *groupRPC) IncrementValidationCount(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := authUser(c)
	if !ok {
		return rpcAbort(c, services.ErrNotAuthenticated)
	}

	serviceRateLimit, err := do.Invoke[*services.ServiceRateLimit](gr.container)
	if err != nil {
		return rpcAbort(c, err)
	}

	status, err := serviceRateLimit.IncrementValidationCount(ctx, user)
	if err != nil {
		return rpcAbort(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

type castTrendVoteRequest struct {
	TrendID  string `json:"trend_id"`
	VoteType string `json:"vote_type"`
}

type castTrendVoteResponse struct {
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
	ID      *uuid.UUID `json:"id,omitempty"`
}

// CastTrendVote always answers 200; the outcome is in the success flag.
func (gr *groupRPC) CastTrendVote(c echo.Context) error {
	ctx := c.Request().Context()
	fail := func(err error) error {
		setRetryAfter(c, err)
		return c.JSON(http.StatusOK, castTrendVoteResponse{Error: err.Error()})
	}

	user, ok := authUser(c)
	if !ok {
		return fail(services.ErrNotAuthenticated)
	}

	var req castTrendVoteRequest
	if err := c.Bind(&req); err != nil {
		return fail(err)
	}

	trendID, err := uuid.Parse(req.TrendID)
	if err != nil {
		return fail(services.ErrValidation)
	}

	serviceValidation, err := do.Invoke[*services.ServiceValidation](gr.container)
	if err != nil {
		return fail(err)
	}

	result, err := serviceValidation.CastVote(ctx, user, trendID, req.VoteType)
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusOK, castTrendVoteResponse{Success: true, ID: &result.ValidationID})
}

func authUser(c echo.Context) (uuid.UUID, bool) {
	user, err := ResolveValidUser(c.Request().Context())
	if err != nil {
		return uuid.Nil, false
	}
	return user.ID, true
}
