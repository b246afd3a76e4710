package handler

import (
	"net/http"

	"wavesight/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupHeat struct {
	container *do.Injector
}

type heatVoteRequest struct {
	TrendID   string `json:"trend_id"`
	VoteType  string `json:"vote_type"`
	VoteValue *int   `json:"vote_value"`
	UserID    string `json:"user_id"`
}

// Vote records the caller's heat vote. A user_id in the body must match the token.
func (gr *groupHeat) Vote(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := authUser(c)
	if !ok {
		return rpcAbort(c, services.ErrNotAuthenticated)
	}

	var req heatVoteRequest
	if err := c.Bind(&req); err != nil {
		return rpcAbort(c, services.ErrValidation)
	}

	if req.UserID != "" && req.UserID != user.String() {
		return c.JSON(http.StatusForbidden, rpcError{Error: services.ErrForbidden.Error()})
	}

	trendID, err := uuid.Parse(req.TrendID)
	if err != nil {
		return rpcAbort(c, services.ErrValidation)
	}

	serviceHeat, err := do.Invoke[*services.ServiceHeat](gr.container)
	if err != nil {
		return rpcAbort(c, err)
	}

	result, err := serviceHeat.CastHeatVote(ctx, user, trendID, req.VoteType, req.VoteValue)
	if err != nil {
		return rpcAbort(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (gr *groupHeat) Show(c echo.Context) error {
	trendID, err := uuid.Parse(c.QueryParam("trend_id"))
	if err != nil {
		return rpcAbort(c, services.ErrValidation)
	}

	var userID *uuid.UUID
	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return rpcAbort(c, services.ErrValidation)
		}
		userID = &id
	}

	serviceHeat, err := do.Invoke[*services.ServiceHeat](gr.container)
	if err != nil {
		return rpcAbort(c, err)
	}

	summary, err := serviceHeat.GetHeat(c.Request().Context(), trendID, userID)
	if err != nil {
		return rpcAbort(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
