package services_test

import (
	"context"
	"testing"
	"time"

	"wavesight/internal/datastore/redis_store"
	"wavesight/internal/models"
	"wavesight/internal/services"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	policy := services.DefaultPolicy()

	tests := []struct {
		name    string
		approve int
		reject  int
		want    string
	}{
		{"no votes", 0, 0, ""},
		{"below thresholds", 2, 2, ""},
		{"approved", 3, 0, models.SubmissionStatusApproved},
		{"rejected", 0, 3, models.SubmissionStatusRejected},
		{"approval wins ties", 3, 3, models.SubmissionStatusApproved},
		{"rejected with approvals", 2, 4, models.SubmissionStatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, services.Evaluate(policy, tt.approve, tt.reject))
		})
	}
}

func TestThresholdFromConfig(t *testing.T) {
	f := newFixture(t, nil)
	f.Store.PutConfig(services.CONFIG_APPROVAL_THRESHOLD, "2")

	owner := f.Profile(models.TierLearning, 0)
	submission := f.submit(t, owner.ID)
	voters := f.voters(2)

	f.vote(t, voters[0], submission.ID, "approve")
	result := f.vote(t, voters[1], submission.ID, "approve")
	require.Equal(t, models.SubmissionStatusApproved, result.Status)
}

func TestForceReject(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	owner := f.Profile(models.TierLearning, 0)
	submission := f.submit(t, owner.ID)
	f.vote(t, f.voters(1)[0], submission.ID, "approve")

	rejected, err := f.consensus.ForceReject(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusRejected, rejected.Status)
	require.NotNil(t, rejected.FinalizedAt)

	reward := f.earning(t, models.SubmissionRewardKey(submission.ID))
	require.Equal(t, models.EarningStatusRejected, reward.Status)
	require.Zero(t, reward.Amount)

	_, err = f.consensus.ForceReject(ctx, submission.ID)
	require.ErrorIs(t, err, services.ErrAlreadyFinalized)

	_, err = f.consensus.ForceReject(ctx, uuid.New())
	require.ErrorIs(t, err, services.ErrForeignKey)
}

func TestAutoRejectStale(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	owner := f.Profile(models.TierLearning, 0)
	stale := f.submit(t, owner.ID)
	voted := f.submit(t, owner.ID)
	f.vote(t, f.voters(1)[0], voted.ID, "approve")

	f.Clock.Advance(47 * time.Hour)
	fresh := f.submit(t, owner.ID)

	n, err := f.consensus.AutoRejectStale(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	f.Clock.Advance(2 * time.Hour)

	n, err = f.consensus.AutoRejectStale(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	for id, want := range map[uuid.UUID]string{
		stale.ID: models.SubmissionStatusRejected,
		voted.ID: models.SubmissionStatusValidating,
		fresh.ID: models.SubmissionStatusSubmitted,
	} {
		got, err := f.submissions.GetSubmission(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want, got.Status)
	}

	reward := f.earning(t, models.SubmissionRewardKey(stale.ID))
	require.Equal(t, models.EarningStatusRejected, reward.Status)

	n, err = f.consensus.AutoRejectStale(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestAutoRejectStaleLocked(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.Redis.Set(services.LockKeyAutoReject(), "other-runner"))

	_, err := f.consensus.AutoRejectStale(context.Background())
	require.ErrorIs(t, err, services.ErrAutoRejectLock)
}

func TestStatusEventPublished(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: f.Redis.Addr()})
	defer client.Close()
	sub := redis_store.SubscribeStatusEvents(ctx, client)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	owner := f.Profile(models.TierLearning, 0)
	submission := f.submit(t, owner.ID)
	voters := f.voters(3)

	f.vote(t, voters[0], submission.ID, "approve")
	f.vote(t, voters[1], submission.ID, "approve")
	f.vote(t, voters[2], submission.ID, "approve")

	var events []*models.StatusEvent
	for len(events) < 2 {
		msg, err := sub.ReceiveMessage(ctx)
		require.NoError(t, err)
		event, err := redis_store.DecodeStatusEvent(msg)
		require.NoError(t, err)
		events = append(events, event)
	}

	require.Equal(t, models.SubmissionStatusSubmitted, events[0].From)
	require.Equal(t, models.SubmissionStatusValidating, events[0].To)
	require.Equal(t, models.SubmissionStatusValidating, events[1].From)
	require.Equal(t, models.SubmissionStatusApproved, events[1].To)
	require.Equal(t, owner.ID, events[1].OwnerID)
	require.Equal(t, 3, events[1].ApproveCount)

	stats, err := f.submissions.StatusSummary(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, models.SubmissionStatusApproved, stats[0].Status)
	require.Equal(t, 3, stats[0].Approvals)
}
