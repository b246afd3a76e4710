package services_test

import (
	"context"
	"testing"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"
	"wavesight/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestFinalizeSubmissionRewardIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	owner := f.Profile(models.TierVerified, 0)
	submission := f.submit(t, owner.ID)

	first, err := f.earnings.FinalizeSubmissionReward(ctx, submission.ID, models.EarningStatusApproved)
	require.NoError(t, err)
	require.Equal(t, models.EarningStatusApproved, first.Status)
	require.Equal(t, 0.38, first.Amount)

	second, err := f.earnings.FinalizeSubmissionReward(ctx, submission.ID, models.EarningStatusApproved)
	require.NoError(t, err)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.Amount, second.Amount)
	require.Equal(t, first.UpdatedAt, second.UpdatedAt)

	third, err := f.earnings.FinalizeSubmissionReward(ctx, submission.ID, models.EarningStatusRejected)
	require.NoError(t, err)
	require.Equal(t, models.EarningStatusApproved, third.Status)
	require.Equal(t, 0.38, third.Amount)

	_, err = f.earnings.FinalizeSubmissionReward(ctx, submission.ID, models.EarningStatusPaid)
	require.ErrorIs(t, err, services.ErrValidation)
}

func TestFinalizeSubmissionRewardMissing(t *testing.T) {
	f := newFixture(t, nil)

	earning, err := f.earnings.FinalizeSubmissionReward(context.Background(), uuid.New(), models.EarningStatusApproved)
	require.NoError(t, err)
	require.Nil(t, earning)
}

func TestApprovalBonus(t *testing.T) {
	policy := services.DefaultPolicy()
	policy.ApprovalBonus = 0.5
	f := newFixture(t, &policy)
	ctx := context.Background()

	owner := f.Profile(models.TierLearning, 0)
	submission := f.submit(t, owner.ID)
	for _, voter := range f.voters(3) {
		f.vote(t, voter, submission.ID, "approve")
	}

	bonus := f.earning(t, models.ApprovalBonusKey(submission.ID))
	require.Equal(t, models.EarningTypeBonus, bonus.Type)
	require.Equal(t, models.EarningStatusApproved, bonus.Status)
	require.Equal(t, 0.5, bonus.Amount)

	_, err := f.earnings.FinalizeSubmissionReward(ctx, submission.ID, models.EarningStatusApproved)
	require.NoError(t, err)

	bonuses := 0
	for _, e := range f.Store.Earnings() {
		if e.Type == models.EarningTypeBonus {
			bonuses++
		}
	}
	require.Equal(t, 1, bonuses)

	summary, err := f.earnings.Summary(ctx, owner.ID)
	require.NoError(t, err)
	require.Equal(t, 0.75, summary.Payable)
	require.Zero(t, summary.OnHold)
	require.Equal(t, 2, summary.Counts[models.EarningStatusApproved])
}

func TestCreatePendingSubmissionRewardIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	owner := f.Profile(models.TierLearning, 0)
	submission := f.submit(t, owner.ID)

	var again *models.Earning
	err := f.Store.RunInTx(ctx, func(ctx context.Context, repo interfaces.Repository) error {
		var err error
		again, err = f.earnings.CreatePendingSubmissionReward(ctx, repo, owner.ID, 1, models.TierMaster, 30, submission.ID)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 0.25, again.Amount)
	require.Len(t, f.Store.Earnings(), 1)
}

func TestEarningsSummary(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	owner := f.Profile(models.TierLearning, 0)
	voter := f.voters(1)[0]

	for i := 0; i < 3; i++ {
		submission := f.submit(t, owner.ID)
		f.vote(t, voter, submission.ID, "approve")
	}

	summary, err := f.earnings.Summary(ctx, voter)
	require.NoError(t, err)
	require.Equal(t, 0.3, summary.Payable)
	require.Equal(t, 0.3, summary.Lifetime)
	require.Equal(t, 3, summary.Counts[models.EarningStatusApproved])

	summary, err = f.earnings.Summary(ctx, owner.ID)
	require.NoError(t, err)
	require.Equal(t, 0.75, summary.OnHold)
	require.Zero(t, summary.Payable)

	list, err := f.earnings.ListEarnings(ctx, voter, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
}
