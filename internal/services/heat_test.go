package services_test

import (
	"context"
	"testing"

	"wavesight/internal/models"
	"wavesight/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCastHeatVote(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	owner := f.Profile(models.TierLearning, 0)
	trend := f.submit(t, owner.ID)
	users := f.voters(2)

	result, err := f.heat.CastHeatVote(ctx, users[0], trend.ID, "wave", nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, services.HEAT_VOTE_XP, result.XPEarned)
	require.Equal(t, 2, result.HeatScore)
	require.Equal(t, 1, result.WaveVotes)

	value := -2
	result, err = f.heat.CastHeatVote(ctx, users[0], trend.ID, "dead", &value)
	require.NoError(t, err)
	require.Zero(t, result.XPEarned)
	require.Equal(t, -2, result.HeatScore)
	require.Zero(t, result.WaveVotes)
	require.Equal(t, 1, result.DeadVotes)

	result, err = f.heat.CastHeatVote(ctx, users[1], trend.ID, "FIRE", nil)
	require.NoError(t, err)
	require.Equal(t, services.HEAT_VOTE_XP, result.XPEarned)
	require.Equal(t, -1, result.HeatScore)

	summary, err := f.heat.GetHeat(ctx, trend.ID, &users[0])
	require.NoError(t, err)
	require.Equal(t, -1, summary.HeatScore)
	require.NotNil(t, summary.UserVote)
	require.Equal(t, models.HeatVoteDead, *summary.UserVote)
	require.Equal(t, map[string]int{"wave": 0, "fire": 1, "declining": 0, "dead": 1}, summary.VoteDistribution)

	stranger := uuid.New()
	summary, err = f.heat.GetHeat(ctx, trend.ID, &stranger)
	require.NoError(t, err)
	require.Nil(t, summary.UserVote)
}

func TestCastHeatVoteInvalid(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	owner := f.Profile(models.TierLearning, 0)
	trend := f.submit(t, owner.ID)

	_, err := f.heat.CastHeatVote(ctx, owner.ID, trend.ID, "meh", nil)
	require.ErrorIs(t, err, services.ErrValidation)

	value := 1
	_, err = f.heat.CastHeatVote(ctx, owner.ID, trend.ID, "wave", &value)
	require.ErrorIs(t, err, services.ErrValidation)

	_, err = f.heat.CastHeatVote(ctx, owner.ID, uuid.New(), "wave", nil)
	require.ErrorIs(t, err, services.ErrForeignKey)
}

func TestCastHeatVoteLockBackendDown(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	owner := f.Profile(models.TierLearning, 0)
	trend := f.submit(t, owner.ID)
	user := f.voters(1)[0]

	f.Redis.Close()

	_, err := f.heat.CastHeatVote(ctx, user, trend.ID, "wave", nil)
	require.ErrorIs(t, err, services.ErrTransientStorage)
	require.NotErrorIs(t, err, services.ErrDuplicateVote)
}
