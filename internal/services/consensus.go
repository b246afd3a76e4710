package services

import (
	"context"
	"database/sql"
	"errors"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// Evaluate maps tallies to a status. Approval is checked first, so a
// submission that reaches both thresholds is approved.
func Evaluate(policy Policy, approveCount, rejectCount int) string {
	if approveCount >= policy.ApprovalThreshold {
		return models.SubmissionStatusApproved
	}
	if rejectCount >= policy.RejectionThreshold {
		return models.SubmissionStatusRejected
	}
	return ""
}

type ServiceConsensus struct {
	container       *do.Injector
	store           interfaces.Store
	rs              *redsync.Redsync
	serviceConfig   *ServiceConfig
	serviceEarnings *ServiceEarnings
	serviceNotifier *ServiceNotifier
	now             Clock
}

func NewServiceConsensus(container *do.Injector) (*ServiceConsensus, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
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

	return &ServiceConsensus{container, store, rs, serviceConfig, serviceEarnings, serviceNotifier, resolveClock(container)}, nil
}

// apply evaluates the locked submission and performs at most one transition.
// It returns the transition event, or nil when the status did not change.
func (service *ServiceConsensus) apply(ctx context.Context, repo interfaces.Repository, submission *models.Submission, policy Policy) (*models.StatusEvent, error) {
	if !submission.IsOpen() {
		return nil, nil
	}

	to := Evaluate(policy, submission.ApproveCount, submission.RejectCount)
	if to == "" {
		if submission.Status == models.SubmissionStatusValidating || submission.ValidationCount == 0 {
			return nil, nil
		}
		to = models.SubmissionStatusValidating
	}

	return service.transition(ctx, repo, submission, to)
}

func (service *ServiceConsensus) transition(ctx context.Context, repo interfaces.Repository, submission *models.Submission, to string) (*models.StatusEvent, error) {
	now := service.now()
	ok, err := repo.TransitionStatus(ctx, submission.ID, models.OpenSubmissionStatuses, to, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyFinalized
	}

	event := &models.StatusEvent{
		SubmissionID: submission.ID,
		OwnerID:      submission.OwnerID,
		From:         submission.Status,
		To:           to,
		ApproveCount: submission.ApproveCount,
		RejectCount:  submission.RejectCount,
		At:           now,
	}
	submission.Status = to
	submission.UpdatedAt = now

	if !models.IsOpenStatus(to) {
		submission.FinalizedAt = &now
		if _, _, err := service.serviceEarnings.finalizeSubmissionReward(ctx, repo, submission.ID, to); err != nil {
			return nil, err
		}
	}

	return event, nil
}

// ForceReject closes an open submission as rejected regardless of its votes.
func (service *ServiceConsensus) ForceReject(ctx context.Context, submissionID uuid.UUID) (*models.Submission, error) {
	return service.reject(ctx, submissionID, false)
}

// reject with onlyUnvoted skips submissions that received a vote since they were listed.
func (service *ServiceConsensus) reject(ctx context.Context, submissionID uuid.UUID, onlyUnvoted bool) (*models.Submission, error) {
	var (
		submission *models.Submission
		event      *models.StatusEvent
	)
	err := service.store.RunInTx(ctx, func(ctx context.Context, repo interfaces.Repository) error {
		var err error
		submission, err = repo.LockSubmission(ctx, submissionID)
		if errors.Is(err, sql.ErrNoRows) {
			return foreignKeyErrorf("submission %s not found", submissionID)
		}
		if err != nil {
			return err
		}
		if !submission.IsOpen() {
			return ErrAlreadyFinalized
		}
		if onlyUnvoted && submission.ValidationCount > 0 {
			return nil
		}

		event, err = service.transition(ctx, repo, submission, models.SubmissionStatusRejected)
		return err
	})
	if err != nil {
		return nil, err
	}
	if event == nil {
		return submission, nil
	}

	metricTransitions.WithLabelValues(event.From, event.To).Inc()
	service.serviceNotifier.Publish(ctx, event)
	return submission, nil
}

// AutoRejectStale force-rejects open submissions that collected no vote within
// the policy window. Only one runner sweeps at a time.
func (service *ServiceConsensus) AutoRejectStale(ctx context.Context) (int, error) {
	mutex := service.rs.NewMutex(LockKeyAutoReject())
	if err := mutex.TryLock(); err != nil {
		return 0, ErrAutoRejectLock
	}
	//nolint:errcheck
	defer mutex.Unlock()

	policy := service.serviceConfig.Policy(ctx)
	cutoff := service.now().Add(-policy.AutoRejectAfter)

	stale, err := service.store.ListStaleSubmissions(ctx, models.OpenSubmissionStatuses, cutoff, AUTO_REJECT_BATCH_SIZE)
	if err != nil {
		return 0, err
	}

	rejected := 0
	for _, submission := range stale {
		result, err := service.reject(ctx, submission.ID, true)
		if errors.Is(err, ErrAlreadyFinalized) {
			continue
		}
		if err != nil {
			zap.L().Error("auto reject", zap.String("submission_id", submission.ID.String()), zap.Error(err))
			continue
		}
		if result.Status == models.SubmissionStatusRejected {
			rejected++
		}
	}

	return rejected, nil
}
