package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"
	"wavesight/internal/pkg/limiter"

	"github.com/go-redis/redis_rate/v10"
	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/samber/do"
)

// ServiceHeat handles sentiment votes on trends. They are independent of
// validation and carry no earnings.
type ServiceHeat struct {
	container     *do.Injector
	store         interfaces.Store
	rs            *redsync.Redsync
	limiter       interfaces.Limiter
	serviceConfig *ServiceConfig
	now           Clock
}

func NewServiceHeat(container *do.Injector) (*ServiceHeat, error) {
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

	return &ServiceHeat{container, store, rs, limiter, serviceConfig, resolveClock(container)}, nil
}

// CastHeatVote records or changes the user's heat vote on a trend. XP is only
// granted for the first vote.
func (service *ServiceHeat) CastHeatVote(ctx context.Context, userID, trendID uuid.UUID, voteType string, voteValue *int) (*models.HeatVoteResult, error) {
	voteType = strings.ToLower(strings.TrimSpace(voteType))
	value, ok := models.HeatVoteValue(voteType)
	if !ok {
		return nil, validationErrorf("invalid vote type %q", voteType)
	}
	if voteValue != nil && *voteValue != value {
		return nil, validationErrorf("vote value %d does not match %s", *voteValue, voteType)
	}

	policy := service.serviceConfig.Policy(ctx)
	err := service.limiter.Allow(ctx, LimitKeyUserHeatVote(userID), redis_rate.PerMinute(policy.VoteBurstPerMinute))
	if errors.Is(err, limiter.ErrRateLimited) {
		return nil, fmt.Errorf("%w: too many votes in the last minute, slow down", ErrRateLimitExceeded)
	}

	mutex := service.rs.NewMutex(LockKeyUserHeatVote(trendID, userID))
	if err := mutex.TryLock(); err != nil {
		return nil, voteLockError(err)
	}
	//nolint:errcheck
	defer mutex.Unlock()

	var (
		xp           int
		distribution map[string]int
	)
	err = service.store.RunInTx(ctx, func(ctx context.Context, repo interfaces.Repository) error {
		if _, err := repo.FindSubmission(ctx, trendID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return foreignKeyErrorf("trend %s not found", trendID)
			}
			return err
		}

		now := service.now()
		vote := &models.HeatVote{
			ID:        uuid.New(),
			TrendID:   trendID,
			UserID:    userID,
			VoteType:  voteType,
			VoteValue: value,
			CreatedAt: now,
			UpdatedAt: now,
		}
		inserted, err := repo.InsertHeatVote(ctx, vote)
		if err != nil {
			return err
		}
		if inserted {
			xp = HEAT_VOTE_XP
		} else if err := repo.UpdateHeatVote(ctx, vote); err != nil {
			return err
		}

		distribution, err = heatDistribution(ctx, repo, trendID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &models.HeatVoteResult{
		Success:        true,
		VoteCast:       voteType,
		XPEarned:       xp,
		HeatScore:      models.Score(distribution),
		WaveVotes:      distribution[models.HeatVoteWave],
		FireVotes:      distribution[models.HeatVoteFire],
		DecliningVotes: distribution[models.HeatVoteDeclining],
		DeadVotes:      distribution[models.HeatVoteDead],
		TrendID:        trendID,
	}, nil
}

// GetHeat returns the trend's heat score. userID is optional and selects user_vote.
func (service *ServiceHeat) GetHeat(ctx context.Context, trendID uuid.UUID, userID *uuid.UUID) (*models.HeatSummary, error) {
	distribution, err := heatDistribution(ctx, service.store, trendID)
	if err != nil {
		return nil, err
	}

	summary := &models.HeatSummary{
		TrendID:          trendID,
		HeatScore:        models.Score(distribution),
		VoteDistribution: distribution,
	}

	if userID != nil {
		vote, err := service.store.FindHeatVote(ctx, trendID, *userID)
		switch {
		case err == nil:
			summary.UserVote = &vote.VoteType
		case !errors.Is(err, sql.ErrNoRows):
			return nil, err
		}
	}

	return summary, nil
}

func heatDistribution(ctx context.Context, repo interfaces.Repository, trendID uuid.UUID) (map[string]int, error) {
	counts, err := repo.HeatDistribution(ctx, trendID)
	if err != nil {
		return nil, err
	}

	distribution := map[string]int{
		models.HeatVoteWave:      0,
		models.HeatVoteFire:      0,
		models.HeatVoteDeclining: 0,
		models.HeatVoteDead:      0,
	}
	for _, c := range counts {
		distribution[c.VoteType] = c.Count
	}
	return distribution, nil
}
