package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"
	"wavesight/internal/pkg/caching"

	"github.com/google/uuid"
	"github.com/samber/do"
)

type ServiceSubmission struct {
	container       *do.Injector
	store           interfaces.Store
	cache           caching.Cache
	readonlyCache   caching.ReadOnlyCache
	serviceConfig   *ServiceConfig
	serviceProfile  *ServiceProfile
	serviceEarnings *ServiceEarnings
	now             Clock
}

func NewServiceSubmission(container *do.Injector) (*ServiceSubmission, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	serviceProfile, err := do.Invoke[*ServiceProfile](container)
	if err != nil {
		return nil, err
	}

	serviceEarnings, err := do.Invoke[*ServiceEarnings](container)
	if err != nil {
		return nil, err
	}

	return &ServiceSubmission{container, store, cache, readonlyCache, serviceConfig, serviceProfile, serviceEarnings, resolveClock(container)}, nil
}

type CreateSubmissionInput struct {
	Category           string           `json:"category"`
	Description        string           `json:"description"`
	Evidence           *models.Evidence `json:"evidence"`
	ViralityPrediction float64          `json:"virality_prediction"`
	QualityScore       float64          `json:"quality_score"`
}

func (input *CreateSubmissionInput) normalize() error {
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.ToLower(strings.TrimSpace(input.Category))

	if input.Description == "" {
		return validationErrorf("description is required")
	}
	if len(input.Description) > MAX_DESCRIPTION_LENGTH {
		return validationErrorf("description must be at most %d characters", MAX_DESCRIPTION_LENGTH)
	}
	if input.ViralityPrediction < 0 || input.ViralityPrediction > 100 {
		return validationErrorf("virality_prediction must be between 0 and 100")
	}
	if input.QualityScore < 0 || input.QualityScore > 100 {
		return validationErrorf("quality_score must be between 0 and 100")
	}
	if input.Category == "" {
		input.Category = models.CategoryOther
	}
	return nil
}

// CreateSubmission stores a new trend and its pending submitter reward together.
func (service *ServiceSubmission) CreateSubmission(ctx context.Context, ownerID uuid.UUID, input CreateSubmissionInput) (*models.Submission, *models.Earning, error) {
	if err := input.normalize(); err != nil {
		return nil, nil, err
	}

	profile, err := service.serviceProfile.FindProfile(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	policy := service.serviceConfig.Policy(ctx)
	now := service.now()
	submission := &models.Submission{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		Category:           input.Category,
		Description:        input.Description,
		Evidence:           input.Evidence,
		QualityScore:       input.QualityScore,
		ViralityPrediction: input.ViralityPrediction,
		Status:             models.SubmissionStatusSubmitted,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	var earning *models.Earning
	err = service.store.RunInTx(ctx, func(ctx context.Context, repo interfaces.Repository) error {
		if err := repo.InsertSubmission(ctx, submission); err != nil {
			return err
		}

		var err error
		earning, err = service.serviceEarnings.CreatePendingSubmissionReward(ctx, repo, ownerID, policy.SubmissionBaseReward, profile.Tier, profile.CurrentStreak, submission.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	metricEarnings.WithLabelValues(models.EarningTypeSubmissionReward).Add(earning.Amount)
	return submission, earning, nil
}

// GetEligibleForVoting lists open submissions the voter may still vote on, newest first.
func (service *ServiceSubmission) GetEligibleForVoting(ctx context.Context, voterID uuid.UUID, limit int) ([]*models.Submission, error) {
	if limit <= 0 {
		limit = ELIGIBLE_DEFAULT_LIMIT
	}
	if limit > ELIGIBLE_MAX_LIMIT {
		limit = ELIGIBLE_MAX_LIMIT
	}

	submissions, err := service.store.ListEligibleSubmissions(ctx, voterID, models.OpenSubmissionStatuses, limit)
	if err != nil {
		return nil, err
	}
	if submissions == nil {
		submissions = []*models.Submission{}
	}
	return submissions, nil
}

func (service *ServiceSubmission) GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	submission, err := service.store.FindSubmission(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, foreignKeyErrorf("submission %s not found", id)
	}
	return submission, err
}

func (service *ServiceSubmission) ListUserSubmissions(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Submission, error) {
	if limit <= 0 || limit > LIST_MAX_LIMIT {
		limit = LIST_DEFAULT_LIMIT
	}

	submissions, err := service.store.ListSubmissionsByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}
	if submissions == nil {
		submissions = []*models.Submission{}
	}
	return submissions, nil
}

// StatusSummary is the content of trend_status_view, cached briefly.
func (service *ServiceSubmission) StatusSummary(ctx context.Context) ([]*models.StatusSummary, error) {
	callback := func() ([]*models.StatusSummary, error) {
		return service.store.StatusSummary(ctx)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyStatusSummary(), CACHE_TTL_15_SECONDS, callback)
}
