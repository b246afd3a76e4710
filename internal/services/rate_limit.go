package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"

	"github.com/google/uuid"
	"github.com/samber/do"
)

// ServiceRateLimit owns the durable hourly and daily validation caps.
type ServiceRateLimit struct {
	container     *do.Injector
	store         interfaces.Store
	serviceConfig *ServiceConfig
	now           Clock
}

func NewServiceRateLimit(container *do.Injector) (*ServiceRateLimit, error) {
	store, err := do.Invoke[interfaces.Store](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceRateLimit{container, store, serviceConfig, resolveClock(container)}, nil
}

// rollover zeroes every window that has fully elapsed and starts it again at now.
func rollover(counter *models.RateLimitCounter, now time.Time) {
	if now.Sub(counter.HourWindowStart) >= RATE_WINDOW_HOUR {
		counter.HourlyCount = 0
		counter.HourWindowStart = now
	}
	if now.Sub(counter.DayWindowStart) >= RATE_WINDOW_DAY {
		counter.DailyCount = 0
		counter.DayWindowStart = now
	}
}

// rateLimitStatus assumes counter has been rolled over at now.
func rateLimitStatus(counter *models.RateLimitCounter, policy Policy) *models.RateLimitStatus {
	hourReset := counter.HourWindowStart.Add(RATE_WINDOW_HOUR)
	dayReset := counter.DayWindowStart.Add(RATE_WINDOW_DAY)

	status := &models.RateLimitStatus{
		HourlyRemaining: max(policy.HourlyValidationLimit-counter.HourlyCount, 0),
		DailyRemaining:  max(policy.DailyValidationLimit-counter.DailyCount, 0),
		ResetTime:       hourReset,
	}
	status.CanValidate = status.HourlyRemaining > 0 && status.DailyRemaining > 0

	switch {
	case status.DailyRemaining == 0:
		status.ResetTime = dayReset
	case status.HourlyRemaining == 0:
		status.ResetTime = hourReset
	}
	return status
}

func rateLimitError(status *models.RateLimitStatus, now time.Time) *RateLimitError {
	window := "hourly"
	if status.DailyRemaining == 0 {
		window = "daily"
	}
	return &RateLimitError{
		Window:          window,
		ResetTime:       status.ResetTime,
		RetryAfter:      status.ResetTime.Sub(now),
		HourlyRemaining: status.HourlyRemaining,
		DailyRemaining:  status.DailyRemaining,
	}
}

// CheckRateLimit reports the caller's remaining budget without consuming it.
func (service *ServiceRateLimit) CheckRateLimit(ctx context.Context, userID uuid.UUID) (*models.RateLimitStatus, error) {
	now := service.now()
	policy := service.serviceConfig.Policy(ctx)

	counter, err := service.store.FindRateLimit(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		counter = &models.RateLimitCounter{UserID: userID, HourWindowStart: now, DayWindowStart: now}
	} else if err != nil {
		return nil, err
	}

	rollover(counter, now)
	return rateLimitStatus(counter, policy), nil
}

// IncrementValidationCount consumes one validation outside of a vote.
func (service *ServiceRateLimit) IncrementValidationCount(ctx context.Context, userID uuid.UUID) (*models.RateLimitStatus, error) {
	policy := service.serviceConfig.Policy(ctx)

	var status *models.RateLimitStatus
	err := service.store.RunInTx(ctx, func(ctx context.Context, repo interfaces.Repository) error {
		counter, err := service.reserve(ctx, repo, userID, policy)
		if err != nil {
			return err
		}
		status, err = service.commit(ctx, repo, counter, policy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// reserve locks and rolls the counter over, failing when no budget is left.
func (service *ServiceRateLimit) reserve(ctx context.Context, repo interfaces.Repository, userID uuid.UUID, policy Policy) (*models.RateLimitCounter, error) {
	now := service.now()
	counter, err := repo.LockRateLimit(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	rollover(counter, now)
	status := rateLimitStatus(counter, policy)
	if !status.CanValidate {
		return nil, rateLimitError(status, now)
	}
	return counter, nil
}

// commit counts one validation on a counter returned by reserve.
func (service *ServiceRateLimit) commit(ctx context.Context, repo interfaces.Repository, counter *models.RateLimitCounter, policy Policy) (*models.RateLimitStatus, error) {
	now := service.now()
	counter.HourlyCount++
	counter.DailyCount++
	counter.LastValidationAt = &now
	counter.UpdatedAt = now

	if err := repo.SaveRateLimit(ctx, counter); err != nil {
		return nil, err
	}
	return rateLimitStatus(counter, policy), nil
}
