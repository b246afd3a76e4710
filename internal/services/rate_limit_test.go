package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"wavesight/internal/models"
	"wavesight/internal/services"

	"github.com/stretchr/testify/require"
)

func TestCheckRateLimitFresh(t *testing.T) {
	f := newFixture(t, nil)

	status, err := f.rateLimit.CheckRateLimit(context.Background(), f.voters(1)[0])
	require.NoError(t, err)
	require.True(t, status.CanValidate)
	require.Equal(t, 20, status.HourlyRemaining)
	require.Equal(t, 100, status.DailyRemaining)
	require.Equal(t, f.Clock.Now().Add(time.Hour), status.ResetTime)
}

func TestRateLimitHourlyBoundary(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	t0 := f.Clock.Now()

	owner := f.Profile(models.TierLearning, 0)
	voter := f.voters(1)[0]

	for i := 0; i < 20; i++ {
		submission := f.submit(t, owner.ID)
		f.vote(t, voter, submission.ID, "approve")
	}

	status, err := f.rateLimit.CheckRateLimit(ctx, voter)
	require.NoError(t, err)
	require.False(t, status.CanValidate)
	require.Zero(t, status.HourlyRemaining)
	require.Equal(t, 80, status.DailyRemaining)
	require.Equal(t, t0.Add(time.Hour), status.ResetTime)

	f.Clock.Advance(30 * time.Minute)
	submission := f.submit(t, owner.ID)

	_, err = f.validations.CastVote(ctx, voter, submission.ID, "approve")
	require.ErrorIs(t, err, services.ErrRateLimitExceeded)

	var rateErr *services.RateLimitError
	require.True(t, errors.As(err, &rateErr))
	require.Equal(t, "hourly", rateErr.Window)
	require.Equal(t, t0.Add(time.Hour), rateErr.ResetTime)
	require.Equal(t, 30*time.Minute, rateErr.RetryAfter)

	stored, err := f.submissions.GetSubmission(ctx, submission.ID)
	require.NoError(t, err)
	require.Zero(t, stored.ValidationCount)

	f.Clock.Advance(30 * time.Minute)

	result := f.vote(t, voter, submission.ID, "approve")
	require.Equal(t, 1, result.ApproveCount)

	status, err = f.rateLimit.CheckRateLimit(ctx, voter)
	require.NoError(t, err)
	require.True(t, status.CanValidate)
	require.Equal(t, 19, status.HourlyRemaining)
	require.Equal(t, 79, status.DailyRemaining)
}

func TestRateLimitDailyCap(t *testing.T) {
	policy := services.DefaultPolicy()
	policy.HourlyValidationLimit = 5
	policy.DailyValidationLimit = 6
	f := newFixture(t, &policy)
	ctx := context.Background()
	t0 := f.Clock.Now()
	voter := f.voters(1)[0]

	for i := 0; i < 5; i++ {
		_, err := f.rateLimit.IncrementValidationCount(ctx, voter)
		require.NoError(t, err)
	}

	f.Clock.Advance(time.Hour)
	status, err := f.rateLimit.IncrementValidationCount(ctx, voter)
	require.NoError(t, err)
	require.False(t, status.CanValidate)
	require.Equal(t, 4, status.HourlyRemaining)
	require.Zero(t, status.DailyRemaining)
	require.Equal(t, t0.Add(24*time.Hour), status.ResetTime)

	_, err = f.rateLimit.IncrementValidationCount(ctx, voter)
	var rateErr *services.RateLimitError
	require.True(t, errors.As(err, &rateErr))
	require.Equal(t, "daily", rateErr.Window)

	f.Clock.Advance(23 * time.Hour)
	status, err = f.rateLimit.IncrementValidationCount(ctx, voter)
	require.NoError(t, err)
	require.Equal(t, 4, status.HourlyRemaining)
	require.Equal(t, 5, status.DailyRemaining)
}
