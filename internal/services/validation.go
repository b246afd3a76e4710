package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"
	"wavesight/internal/pkg/limiter"

	"github.com/go-redis/redis_rate/v10"
	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/samber/do"
	"go.uber.org/zap"
)

type ServiceValidation struct {
	container        *do.Injector
	store            interfaces.Store
	rs               *redsync.Redsync
	limiter          interfaces.Limiter
	serviceConfig    *ServiceConfig
	serviceRateLimit *ServiceRateLimit
	serviceConsensus *ServiceConsensus
	serviceEarnings  *ServiceEarnings
	serviceNotifier  *ServiceNotifier
	now              Clock
}

func NewServiceValidation(container *do.Injector) (*ServiceValidation, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	limiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	serviceRateLimit, err := do.Invoke[*ServiceRateLimit](container)
	if err != nil {
		return nil, err
	}

	serviceConsensus, err := do.Invoke[*ServiceConsensus](container)
	if err != nil {
		return nil, err
	}

	serviceEarnings, err := do.Invoke[*ServiceEarnings](container)
	if err != nil {
		return nil, err
	}

	serviceNotifier, err := do.Invoke[*ServiceNotifier](container)
	if err != nil {
		return nil, err
	}

	return &ServiceValidation{
		container:        container,
		store:            store,
		rs:               rs,
		limiter:          limiter,
		serviceConfig:    serviceConfig,
		serviceRateLimit: serviceRateLimit,
		serviceConsensus: serviceConsensus,
		serviceEarnings:  serviceEarnings,
		serviceNotifier:  serviceNotifier,
		now:              resolveClock(container),
	}, nil
}

// CastVote records one validation and applies all of its effects in a single
// transaction: ledger row, tally, status transition, rewards and the rate
// counter. Voting again on the same submission fails with ErrDuplicateVote
// after completing whatever effects of the first vote are missing.
func (service *ServiceValidation) CastVote(ctx context.Context, voterID, submissionID uuid.UUID, rawDecision string) (*models.VoteResult, error) {
	result, err := service.castVote(ctx, voterID, submissionID, rawDecision)
	if err != nil {
		metricVoteRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}
	return result, nil
}

func (service *ServiceValidation) castVote(ctx context.Context, voterID, submissionID uuid.UUID, rawDecision string) (*models.VoteResult, error) {
	decision, ok := models.ParseDecision(rawDecision)
	if !ok {
		return nil, validationErrorf("unknown vote %q, expected approve or reject", rawDecision)
	}

	policy := service.serviceConfig.Policy(ctx)

	mutex := service.rs.NewMutex(LockKeyUserVote(submissionID, voterID))
	if err := mutex.TryLock(); err != nil {
		return nil, voteLockError(err)
	}
	//nolint:errcheck
	defer mutex.Unlock()

	var (
		result    *models.VoteResult
		event     *models.StatusEvent
		duplicate bool
	)
	err := service.store.RunInTx(ctx, func(ctx context.Context, repo interfaces.Repository) error {
		submission, err := repo.LockSubmission(ctx, submissionID)
		if errors.Is(err, sql.ErrNoRows) {
			return foreignKeyErrorf("submission %s not found", submissionID)
		}
		if err != nil {
			return err
		}

		if submission.OwnerID == voterID {
			return ErrSelfVote
		}

		existing, err := repo.FindValidation(ctx, submissionID, voterID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if existing != nil {
			duplicate = true
			event, err = service.reconcile(ctx, repo, submission, existing, policy)
			return err
		}

		if !submission.IsOpen() {
			return ErrAlreadyFinalized
		}

		// rejected attempts and retries do not spend the burst budget
		if err := service.allowBurst(ctx, voterID, policy); err != nil {
			return err
		}

		counter, err := service.serviceRateLimit.reserve(ctx, repo, voterID, policy)
		if err != nil {
			return err
		}

		now := service.now()
		validation := &models.Validation{
			ID:           uuid.New(),
			SubmissionID: submissionID,
			ValidatorID:  voterID,
			Decision:     decision,
			CreatedAt:    now,
		}
		inserted, err := repo.InsertValidation(ctx, validation)
		if err != nil {
			return err
		}
		if !inserted {
			return ErrDuplicateVote
		}

		submission, err = repo.IncrementTally(ctx, submissionID, decision, now)
		if err != nil {
			return err
		}

		event, err = service.serviceConsensus.apply(ctx, repo, submission, policy)
		if err != nil {
			return err
		}

		reward, _, err := service.serviceEarnings.CreateValidationReward(ctx, repo, voterID, submissionID, policy.ValidationReward)
		if err != nil {
			return err
		}

		if _, err := service.serviceRateLimit.commit(ctx, repo, counter, policy); err != nil {
			return err
		}

		result = &models.VoteResult{
			ValidationID:    validation.ID,
			SubmissionID:    submission.ID,
			Decision:        decision,
			Status:          submission.Status,
			ApproveCount:    submission.ApproveCount,
			RejectCount:     submission.RejectCount,
			ValidationCount: submission.ValidationCount,
			Reward:          reward.Amount,
			StatusChanged:   event != nil && !models.IsOpenStatus(event.To),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if event != nil {
		metricTransitions.WithLabelValues(event.From, event.To).Inc()
		service.serviceNotifier.Publish(ctx, event)
	}

	if duplicate {
		return nil, ErrDuplicateVote
	}

	metricVotes.WithLabelValues(decision).Inc()
	metricEarnings.WithLabelValues(models.EarningTypeValidationReward).Add(result.Reward)
	return result, nil
}

// reconcile completes the side effects of an already recorded vote: the
// validator reward, the tallies and the consensus transition.
func (service *ServiceValidation) reconcile(ctx context.Context, repo interfaces.Repository, submission *models.Submission, existing *models.Validation, policy Policy) (*models.StatusEvent, error) {
	_, created, err := service.serviceEarnings.CreateValidationReward(ctx, repo, existing.ValidatorID, existing.SubmissionID, policy.ValidationReward)
	if err != nil {
		return nil, err
	}
	if created {
		zap.L().Warn("restored missing validation reward",
			zap.String("submission_id", existing.SubmissionID.String()),
			zap.String("validator_id", existing.ValidatorID.String()))
	}

	approve, reject, err := repo.CountValidations(ctx, submission.ID)
	if err != nil {
		return nil, err
	}
	if approve != submission.ApproveCount || reject != submission.RejectCount {
		zap.L().Warn("recounted submission tallies",
			zap.String("submission_id", submission.ID.String()),
			zap.Int("approve_count", approve),
			zap.Int("reject_count", reject))
		submission, err = repo.SetTallies(ctx, submission.ID, approve, reject, service.now())
		if err != nil {
			return nil, err
		}
	}

	if !submission.IsOpen() {
		_, _, err := service.serviceEarnings.finalizeSubmissionReward(ctx, repo, submission.ID, submission.Status)
		return nil, err
	}

	return service.serviceConsensus.apply(ctx, repo, submission, policy)
}

// allowBurst is a short-window guard in front of the durable hourly and daily
// caps. Limiter outages let the vote through.
func (service *ServiceValidation) allowBurst(ctx context.Context, voterID uuid.UUID, policy Policy) error {
	err := service.limiter.Allow(ctx, LimitKeyUserVote(voterID), redis_rate.PerMinute(policy.VoteBurstPerMinute))
	if err == nil {
		return nil
	}
	if errors.Is(err, limiter.ErrRateLimited) {
		return fmt.Errorf("%w: too many votes in the last minute, slow down", ErrRateLimitExceeded)
	}

	zap.L().Warn("vote burst limiter unavailable", zap.Error(err))
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrForeignKey):
		return "not_found"
	case errors.Is(err, ErrSelfVote):
		return "self_vote"
	case errors.Is(err, ErrDuplicateVote):
		return "duplicate"
	case errors.Is(err, ErrAlreadyFinalized):
		return "finalized"
	case errors.Is(err, ErrRateLimitExceeded):
		return "rate_limited"
	case errors.Is(err, ErrTransientStorage):
		return "transient"
	}
	return "other"
}
