package services_test

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"wavesight/internal/models"
	"wavesight/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateSubmission(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	owner := f.Profile(models.TierElite, 30)

	submission, earning, err := f.submissions.CreateSubmission(ctx, owner.ID, services.CreateSubmissionInput{
		Description: "  new sound going around  ",
	})
	require.NoError(t, err)
	require.Equal(t, models.CategoryOther, submission.Category)
	require.Equal(t, "new sound going around", submission.Description)
	require.Equal(t, models.SubmissionStatusSubmitted, submission.Status)
	require.Zero(t, submission.ValidationCount)

	require.Equal(t, models.EarningStatusAwaitingVerification, earning.Status)
	require.Equal(t, models.EarningTypeSubmissionReward, earning.Type)
	require.Equal(t, 1.25, earning.Amount)
	require.Equal(t, models.TierElite, earning.Breakdown.Tier)
	require.Equal(t, 2.0, earning.Breakdown.TierMultiplier)
	require.Equal(t, 2.5, earning.Breakdown.StreakMultiplier)
	require.False(t, earning.Breakdown.Capped)

	mine, err := f.submissions.ListUserSubmissions(ctx, owner.ID, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, submission.ID, mine[0].ID)
}

func TestCreateSubmissionInvalid(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.Profile(models.TierLearning, 0)

	tests := []struct {
		name  string
		input services.CreateSubmissionInput
	}{
		{"empty description", services.CreateSubmissionInput{Description: "   "}},
		{"long description", services.CreateSubmissionInput{Description: strings.Repeat("x", services.MAX_DESCRIPTION_LENGTH+1)}},
		{"virality above range", services.CreateSubmissionInput{Description: "x", ViralityPrediction: 101}},
		{"negative quality", services.CreateSubmissionInput{Description: "x", QualityScore: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.submissions.CreateSubmission(ctx, owner.ID, tt.input)
			require.ErrorIs(t, err, services.ErrValidation)
		})
	}

	_, _, err := f.submissions.CreateSubmission(ctx, uuid.New(), services.CreateSubmissionInput{Description: "x"})
	require.ErrorIs(t, err, services.ErrForeignKey)

	require.Empty(t, f.Store.Earnings())
}

func TestCreateSubmissionCapped(t *testing.T) {
	policy := services.DefaultPolicy()
	policy.SubmissionBaseReward = 1
	f := newFixture(t, &policy)

	owner := f.Profile(models.TierMaster, 30)
	_, earning, err := f.submissions.CreateSubmission(context.Background(), owner.ID, services.CreateSubmissionInput{Description: "x"})
	require.NoError(t, err)
	require.Equal(t, 3.0, earning.Amount)
	require.True(t, earning.Breakdown.Capped)
}

func TestGetSubmissionUnknown(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.submissions.GetSubmission(context.Background(), uuid.New())
	require.ErrorIs(t, err, services.ErrForeignKey)
}

func TestGetEligibleForVotingRandomized(t *testing.T) {
	policy := services.DefaultPolicy()
	policy.HourlyValidationLimit = 1000
	policy.DailyValidationLimit = 1000
	policy.VoteBurstPerMinute = 1000
	f := newFixture(t, &policy)
	ctx := context.Background()

	rnd := rand.New(rand.NewSource(42))
	users := f.voters(6)

	var all []*models.Submission
	for i := 0; i < 40; i++ {
		f.Clock.Advance(time.Minute)
		all = append(all, f.submit(t, users[rnd.Intn(len(users))]))
	}

	for i := 0; i < 80; i++ {
		voter := users[rnd.Intn(len(users))]
		submission := all[rnd.Intn(len(all))]
		decision := "approve"
		if rnd.Intn(2) == 0 {
			decision = "reject"
		}
		// self votes, repeats and closed submissions are expected to fail
		//nolint:errcheck
		f.validations.CastVote(ctx, voter, submission.ID, decision)
	}

	voted := map[[2]uuid.UUID]bool{}
	for _, v := range f.Store.Validations() {
		voted[[2]uuid.UUID{v.SubmissionID, v.ValidatorID}] = true
	}

	for _, user := range users {
		eligible, err := f.submissions.GetEligibleForVoting(ctx, user, services.ELIGIBLE_MAX_LIMIT)
		require.NoError(t, err)

		var want []uuid.UUID
		for i := len(all) - 1; i >= 0; i-- {
			current, err := f.submissions.GetSubmission(ctx, all[i].ID)
			require.NoError(t, err)
			if !current.IsOpen() || current.OwnerID == user || voted[[2]uuid.UUID{current.ID, user}] {
				continue
			}
			want = append(want, current.ID)
		}

		got := make([]uuid.UUID, 0, len(eligible))
		for _, s := range eligible {
			require.NotEqual(t, user, s.OwnerID)
			got = append(got, s.ID)
		}
		if want == nil {
			want = []uuid.UUID{}
		}
		require.Equal(t, want, got)
	}
}

func TestGetEligibleForVotingLimit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	owner := f.Profile(models.TierLearning, 0)
	for i := 0; i < 12; i++ {
		f.Clock.Advance(time.Second)
		f.submit(t, owner.ID)
	}
	voter := f.voters(1)[0]

	eligible, err := f.submissions.GetEligibleForVoting(ctx, voter, 0)
	require.NoError(t, err)
	require.Len(t, eligible, services.ELIGIBLE_DEFAULT_LIMIT)
	for i := 1; i < len(eligible); i++ {
		require.True(t, eligible[i-1].CreatedAt.After(eligible[i].CreatedAt))
	}

	eligible, err = f.submissions.GetEligibleForVoting(ctx, owner.ID, 5)
	require.NoError(t, err)
	require.Empty(t, eligible)
}
