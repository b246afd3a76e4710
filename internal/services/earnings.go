package services

import (
	"context"
	"database/sql"
	"errors"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"
	"wavesight/internal/pkg"

	"github.com/google/uuid"
	"github.com/samber/do"
	"go.uber.org/zap"
)

type ServiceEarnings struct {
	container     *do.Injector
	store         interfaces.Store
	serviceConfig *ServiceConfig
	now           Clock
}

func NewServiceEarnings(container *do.Injector) (*ServiceEarnings, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceEarnings{container, store, serviceConfig, resolveClock(container)}, nil
}

// CreatePendingSubmissionReward records the submitter's reward, held until consensus.
// Calling it again for the same submission returns the existing entry.
func (service *ServiceEarnings) CreatePendingSubmissionReward(ctx context.Context, repo interfaces.Repository, ownerID uuid.UUID, baseAmount float64, tier string, streakDays int, submissionID uuid.UUID) (*models.Earning, error) {
	policy := service.serviceConfig.Policy(ctx)

	amount := CalculateReward(baseAmount, tier, streakDays)
	capped := false
	if policy.MaxSubmissionReward > 0 && amount > policy.MaxSubmissionReward {
		amount = policy.MaxSubmissionReward
		capped = true
	}

	now := service.now()
	earning := &models.Earning{
		ID:           uuid.New(),
		UserID:       ownerID,
		Amount:       amount,
		Type:         models.EarningTypeSubmissionReward,
		Status:       models.EarningStatusAwaitingVerification,
		SubmissionID: &submissionID,
		ReferenceKey: models.SubmissionRewardKey(submissionID),
		Breakdown: &models.EarningBreakdown{
			BaseAmount:       baseAmount,
			Tier:             tier,
			TierMultiplier:   TierMultiplier(tier),
			StreakDays:       streakDays,
			StreakMultiplier: StreakMultiplier(streakDays),
			Capped:           capped,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	inserted, err := repo.InsertEarning(ctx, earning)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return repo.FindEarningByReference(ctx, earning.ReferenceKey)
	}

	return earning, nil
}

// FinalizeSubmissionReward settles the submitter's reward in its own transaction.
func (service *ServiceEarnings) FinalizeSubmissionReward(ctx context.Context, submissionID uuid.UUID, outcome string) (*models.Earning, error) {
	var earning *models.Earning
	err := service.store.RunInTx(ctx, func(ctx context.Context, repo interfaces.Repository) error {
		var err error
		earning, _, err = service.finalizeSubmissionReward(ctx, repo, submissionID, outcome)
		return err
	})
	if err != nil {
		return nil, err
	}
	return earning, nil
}

// finalizeSubmissionReward moves the pending entry to approved or rejected.
// A terminal entry is returned as is, so repeated calls do nothing.
func (service *ServiceEarnings) finalizeSubmissionReward(ctx context.Context, repo interfaces.Repository, submissionID uuid.UUID, outcome string) (*models.Earning, bool, error) {
	if outcome != models.EarningStatusApproved && outcome != models.EarningStatusRejected {
		return nil, false, validationErrorf("unknown outcome %q", outcome)
	}

	earning, err := repo.FindEarningByReference(ctx, models.SubmissionRewardKey(submissionID))
	if errors.Is(err, sql.ErrNoRows) {
		zap.L().Warn("submission has no pending reward", zap.String("submission_id", submissionID.String()))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if !isOpenEarning(earning.Status) {
		return earning, false, nil
	}

	updated := *earning
	breakdown := models.EarningBreakdown{}
	if earning.Breakdown != nil {
		breakdown = *earning.Breakdown
	}
	breakdown.Outcome = outcome
	updated.Breakdown = &breakdown
	updated.Status = outcome
	updated.UpdatedAt = service.now()
	if outcome == models.EarningStatusRejected {
		original := earning.Amount
		breakdown.OriginalAmount = &original
		updated.Amount = 0
	}

	ok, err := repo.UpdateEarningStatus(ctx, &updated, models.OpenEarningStatuses)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		current, err := repo.FindEarningByReference(ctx, earning.ReferenceKey)
		return current, false, err
	}

	if outcome == models.EarningStatusApproved {
		policy := service.serviceConfig.Policy(ctx)
		if policy.ApprovalBonus > 0 {
			if err := service.createApprovalBonus(ctx, repo, earning.UserID, submissionID, policy.ApprovalBonus); err != nil {
				return nil, false, err
			}
		}
	}

	return &updated, true, nil
}

func (service *ServiceEarnings) createApprovalBonus(ctx context.Context, repo interfaces.Repository, ownerID, submissionID uuid.UUID, amount float64) error {
	now := service.now()
	_, err := repo.InsertEarning(ctx, &models.Earning{
		ID:           uuid.New(),
		UserID:       ownerID,
		Amount:       pkg.Round2(amount),
		Type:         models.EarningTypeBonus,
		Status:       models.EarningStatusApproved,
		SubmissionID: &submissionID,
		ReferenceKey: models.ApprovalBonusKey(submissionID),
		Breakdown:    &models.EarningBreakdown{BaseAmount: amount, Outcome: models.EarningStatusApproved},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return err
}

// CreateValidationReward pays a validator immediately. The bool is false when
// the vote had already been rewarded.
func (service *ServiceEarnings) CreateValidationReward(ctx context.Context, repo interfaces.Repository, voterID, submissionID uuid.UUID, amount float64) (*models.Earning, bool, error) {
	now := service.now()
	earning := &models.Earning{
		ID:           uuid.New(),
		UserID:       voterID,
		Amount:       pkg.Round2(amount),
		Type:         models.EarningTypeValidationReward,
		Status:       models.EarningStatusApproved,
		SubmissionID: &submissionID,
		ReferenceKey: models.ValidationRewardKey(submissionID, voterID),
		Breakdown:    &models.EarningBreakdown{BaseAmount: amount},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	inserted, err := repo.InsertEarning(ctx, earning)
	if err != nil {
		return nil, false, err
	}
	if !inserted {
		existing, err := repo.FindEarningByReference(ctx, earning.ReferenceKey)
		return existing, false, err
	}
	return earning, true, nil
}

func (service *ServiceEarnings) ListEarnings(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Earning, error) {
	if limit <= 0 || limit > LIST_MAX_LIMIT {
		limit = LIST_DEFAULT_LIMIT
	}

	earnings, err := service.store.ListEarnings(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if earnings == nil {
		earnings = []*models.Earning{}
	}
	return earnings, nil
}

func (service *ServiceEarnings) Summary(ctx context.Context, userID uuid.UUID) (*models.EarningsSummary, error) {
	totals, err := service.store.SumEarnings(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &models.EarningsSummary{
		UserID: userID,
		Totals: map[string]float64{},
		Counts: map[string]int{},
	}
	for _, t := range totals {
		summary.Totals[t.Status] = pkg.Round2(t.Total)
		summary.Counts[t.Status] = t.Count
		switch t.Status {
		case models.EarningStatusApproved:
			summary.Payable = pkg.Round2(summary.Payable + t.Total)
			summary.Lifetime = pkg.Round2(summary.Lifetime + t.Total)
		case models.EarningStatusPaid:
			summary.Lifetime = pkg.Round2(summary.Lifetime + t.Total)
		case models.EarningStatusPending, models.EarningStatusAwaitingVerification:
			summary.OnHold = pkg.Round2(summary.OnHold + t.Total)
		}
	}

	return summary, nil
}

func isOpenEarning(status string) bool {
	for _, s := range models.OpenEarningStatuses {
		if s == status {
			return true
		}
	}
	return false
}
