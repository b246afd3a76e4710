package services

import (
	"context"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"

	"github.com/go-redsync/redsync/v4"
	"github.com/samber/do"
	"go.uber.org/zap"
)

type ReconcileReport struct {
	TallyMismatches       []*models.TallyMismatch `json:"tally_mismatches"`
	UnrewardedValidations []*models.Validation    `json:"unrewarded_validations"`
}

// ServiceReconcile reports drift between the denormalized tallies, the vote
// ledger and the earnings ledger. It does not repair anything; a retried vote
// heals its own submission.
type ServiceReconcile struct {
	container *do.Injector
	store     interfaces.Store
	rs        *redsync.Redsync
}

func NewServiceReconcile(container *do.Injector) (*ServiceReconcile, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	return &ServiceReconcile{container, store, rs}, nil
}

func (service *ServiceReconcile) Report(ctx context.Context) (*ReconcileReport, error) {
	mutex := service.rs.NewMutex(LockKeyReconcile())
	if err := mutex.TryLock(); err != nil {
		return nil, ErrReconcileLock
	}
	//nolint:errcheck
	defer mutex.Unlock()

	mismatches, err := service.store.ListTallyMismatches(ctx, RECONCILE_BATCH_SIZE)
	if err != nil {
		return nil, err
	}

	unrewarded, err := service.store.ListUnrewardedValidations(ctx, RECONCILE_BATCH_SIZE)
	if err != nil {
		return nil, err
	}

	for _, m := range mismatches {
		zap.L().Warn("tally mismatch",
			zap.String("submission_id", m.SubmissionID.String()),
			zap.Int("approve_count", m.ApproveCount),
			zap.Int("reject_count", m.RejectCount),
			zap.Int("ledger_approve_count", m.LedgerApproveCount),
			zap.Int("ledger_reject_count", m.LedgerRejectCount))
	}
	for _, v := range unrewarded {
		zap.L().Warn("validation without reward",
			zap.String("submission_id", v.SubmissionID.String()),
			zap.String("validator_id", v.ValidatorID.String()))
	}

	zap.L().Info("reconcile report",
		zap.Int("tally_mismatches", len(mismatches)),
		zap.Int("unrewarded_validations", len(unrewarded)))

	return &ReconcileReport{mismatches, unrewarded}, nil
}
