package interfaces

import (
	"context"
	"errors"
	"time"

	"wavesight/internal/models"

	"github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
)

var (
	// ErrForeignKey is returned when a write references a row that does not exist.
	ErrForeignKey = errors.New("referenced entity does not exist")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("unique constraint violated")
	// ErrTransient covers timeouts and connection failures; callers may retry.
	ErrTransient = errors.New("transient storage error")
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// Repository is the storage surface of the validation core. Lookups of a
// single missing row return sql.ErrNoRows.
type Repository interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	ListConfigs(ctx context.Context) ([]*models.Config, error)
	FindConfig(ctx context.Context, key string) (*models.Config, error)

	InsertSubmission(ctx context.Context, submission *models.Submission) error
	FindSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	// LockSubmission reads the row and holds it until the transaction ends.
	LockSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	IncrementTally(ctx context.Context, id uuid.UUID, decision string, at time.Time) (*models.Submission, error)
	SetTallies(ctx context.Context, id uuid.UUID, approve, reject int, at time.Time) (*models.Submission, error)
	// TransitionStatus moves the submission to status only if its current status is one of from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string, at time.Time) (bool, error)
	ListEligibleSubmissions(ctx context.Context, voterID uuid.UUID, statuses []string, limit int) ([]*models.Submission, error)
	ListSubmissionsByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Submission, error)
	ListStaleSubmissions(ctx context.Context, statuses []string, createdBefore time.Time, limit int) ([]*models.Submission, error)

	// InsertValidation reports false when the (submission, validator) pair already exists.
	InsertValidation(ctx context.Context, validation *models.Validation) (bool, error)
	FindValidation(ctx context.Context, submissionID, validatorID uuid.UUID) (*models.Validation, error)
	CountValidations(ctx context.Context, submissionID uuid.UUID) (approve int, reject int, err error)

	// InsertEarning reports false when the reference key already exists.
	InsertEarning(ctx context.Context, earning *models.Earning) (bool, error)
	FindEarningByReference(ctx context.Context, referenceKey string) (*models.Earning, error)
	// UpdateEarningStatus writes status, amount and breakdown only if the current status is one of from.
	UpdateEarningStatus(ctx context.Context, earning *models.Earning, from []string) (bool, error)
	ListEarnings(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Earning, error)
	SumEarnings(ctx context.Context, userID uuid.UUID) ([]*models.EarningStatusTotal, error)

	// LockRateLimit returns the user's counter, creating it if needed, locked for the transaction.
	LockRateLimit(ctx context.Context, userID uuid.UUID, now time.Time) (*models.RateLimitCounter, error)
	FindRateLimit(ctx context.Context, userID uuid.UUID) (*models.RateLimitCounter, error)
	SaveRateLimit(ctx context.Context, counter *models.RateLimitCounter) error

	InsertHeatVote(ctx context.Context, vote *models.HeatVote) (bool, error)
	UpdateHeatVote(ctx context.Context, vote *models.HeatVote) error
	FindHeatVote(ctx context.Context, trendID, userID uuid.UUID) (*models.HeatVote, error)
	HeatDistribution(ctx context.Context, trendID uuid.UUID) ([]*models.HeatVoteCount, error)

	StatusSummary(ctx context.Context) ([]*models.StatusSummary, error)
	ListTallyMismatches(ctx context.Context, limit int) ([]*models.TallyMismatch, error)
	ListUnrewardedValidations(ctx context.Context, limit int) ([]*models.Validation, error)
}

// Store is a Repository that can run a unit of work atomically.
type Store interface {
	Repository
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
