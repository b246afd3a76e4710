package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"wavesight/internal/interfaces"
	"wavesight/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var _ interfaces.Store = (*Store)(nil)

// Store implements interfaces.Store on Postgres. Reads outside a transaction
// go to the read-only replica.
type Store struct {
	*Queries
	db *bun.DB
}

// Queries runs every repository call against one bun.IDB (a DB or a Tx).
type Queries struct {
	db       bun.IDB
	readonly bun.IDB
}

func NewStore(db *bun.DB, readonly *bun.DB) *Store {
	if readonly == nil {
		readonly = db
	}
	return &Store{Queries: &Queries{db: db, readonly: readonly}, db: db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repo interfaces.Repository) error) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Queries{db: tx, readonly: tx})
	})
	return translateError(err)
}

// translateError maps driver errors onto the storage sentinels. Errors that
// already carry a domain meaning pass through untouched.
func translateError(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if errors.Is(err, interfaces.ErrForeignKey) || errors.Is(err, interfaces.ErrConflict) || errors.Is(err, interfaces.ErrTransient) {
		return err
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case "23503":
			return fmt.Errorf("%w: %s", interfaces.ErrForeignKey, pgErr.Field('M'))
		case "23505":
			return fmt.Errorf("%w: %s", interfaces.ErrConflict, pgErr.Field('M'))
		case "40001", "40P01", "57014", "53300":
			return fmt.Errorf("%w: %s", interfaces.ErrTransient, pgErr.Field('M'))
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", interfaces.ErrTransient, err)
	}
	return err
}

func (q *Queries) FindProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	v, err := FindUserProfileByID(ctx, q.readonly, userID)
	return v, translateError(err)
}

func (q *Queries) ListConfigs(ctx context.Context) ([]*models.Config, error) {
	v, err := GetConfigs(ctx, q.readonly)
	return v, translateError(err)
}

func (q *Queries) FindConfig(ctx context.Context, key string) (*models.Config, error) {
	v, err := GetConfigByKey(ctx, q.readonly, key)
	return v, translateError(err)
}

func (q *Queries) InsertSubmission(ctx context.Context, submission *models.Submission) error {
	return translateError(InsertSubmission(ctx, q.db, submission))
}

func (q *Queries) FindSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	v, err := FindSubmissionByID(ctx, q.readonly, id)
	return v, translateError(err)
}

func (q *Queries) LockSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	v, err := FindSubmissionForUpdate(ctx, q.db, id)
	return v, translateError(err)
}

func (q *Queries) IncrementTally(ctx context.Context, id uuid.UUID, decision string, at time.Time) (*models.Submission, error) {
	v, err := IncrementSubmissionTally(ctx, q.db, id, decision, at)
	return v, translateError(err)
}

func (q *Queries) SetTallies(ctx context.Context, id uuid.UUID, approve, reject int, at time.Time) (*models.Submission, error) {
	v, err := SetSubmissionTallies(ctx, q.db, id, approve, reject, at)
	return v, translateError(err)
}

func (q *Queries) TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string, at time.Time) (bool, error) {
	v, err := TransitionSubmissionStatus(ctx, q.db, id, from, to, at)
	return v, translateError(err)
}

func (q *Queries) ListEligibleSubmissions(ctx context.Context, voterID uuid.UUID, statuses []string, limit int) ([]*models.Submission, error) {
	v, err := GetEligibleSubmissions(ctx, q.readonly, voterID, statuses, limit)
	return v, translateError(err)
}

func (q *Queries) ListSubmissionsByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Submission, error) {
	v, err := GetSubmissionsByOwner(ctx, q.readonly, ownerID, limit)
	return v, translateError(err)
}

func (q *Queries) ListStaleSubmissions(ctx context.Context, statuses []string, createdBefore time.Time, limit int) ([]*models.Submission, error) {
	v, err := GetStaleSubmissions(ctx, q.db, statuses, createdBefore, limit)
	return v, translateError(err)
}

func (q *Queries) InsertValidation(ctx context.Context, validation *models.Validation) (bool, error) {
	v, err := InsertValidation(ctx, q.db, validation)
	return v, translateError(err)
}

func (q *Queries) FindValidation(ctx context.Context, submissionID, validatorID uuid.UUID) (*models.Validation, error) {
	v, err := FindValidation(ctx, q.db, submissionID, validatorID)
	return v, translateError(err)
}

func (q *Queries) CountValidations(ctx context.Context, submissionID uuid.UUID) (int, int, error) {
	approve, reject, err := CountValidations(ctx, q.db, submissionID)
	return approve, reject, translateError(err)
}

func (q *Queries) InsertEarning(ctx context.Context, earning *models.Earning) (bool, error) {
	v, err := InsertEarning(ctx, q.db, earning)
	return v, translateError(err)
}

func (q *Queries) FindEarningByReference(ctx context.Context, referenceKey string) (*models.Earning, error) {
	v, err := FindEarningByReference(ctx, q.db, referenceKey)
	return v, translateError(err)
}

func (q *Queries) UpdateEarningStatus(ctx context.Context, earning *models.Earning, from []string) (bool, error) {
	v, err := UpdateEarningStatus(ctx, q.db, earning, from)
	return v, translateError(err)
}

func (q *Queries) ListEarnings(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Earning, error) {
	v, err := GetEarningsByUser(ctx, q.readonly, userID, limit)
	return v, translateError(err)
}

func (q *Queries) SumEarnings(ctx context.Context, userID uuid.UUID) ([]*models.EarningStatusTotal, error) {
	v, err := SumEarningsByStatus(ctx, q.readonly, userID)
	return v, translateError(err)
}

func (q *Queries) LockRateLimit(ctx context.Context, userID uuid.UUID, now time.Time) (*models.RateLimitCounter, error) {
	v, err := FindOrCreateRateLimitForUpdate(ctx, q.db, userID, now)
	return v, translateError(err)
}

func (q *Queries) FindRateLimit(ctx context.Context, userID uuid.UUID) (*models.RateLimitCounter, error) {
	v, err := FindRateLimit(ctx, q.db, userID)
	return v, translateError(err)
}

func (q *Queries) SaveRateLimit(ctx context.Context, counter *models.RateLimitCounter) error {
	return translateError(SaveRateLimit(ctx, q.db, counter))
}

func (q *Queries) InsertHeatVote(ctx context.Context, vote *models.HeatVote) (bool, error) {
	v, err := InsertHeatVote(ctx, q.db, vote)
	return v, translateError(err)
}

func (q *Queries) UpdateHeatVote(ctx context.Context, vote *models.HeatVote) error {
	return translateError(UpdateHeatVote(ctx, q.db, vote))
}

func (q *Queries) FindHeatVote(ctx context.Context, trendID, userID uuid.UUID) (*models.HeatVote, error) {
	v, err := FindHeatVote(ctx, q.db, trendID, userID)
	return v, translateError(err)
}

func (q *Queries) HeatDistribution(ctx context.Context, trendID uuid.UUID) ([]*models.HeatVoteCount, error) {
	v, err := GetHeatDistribution(ctx, q.db, trendID)
	return v, translateError(err)
}

func (q *Queries) StatusSummary(ctx context.Context) ([]*models.StatusSummary, error) {
	v, err := GetStatusSummary(ctx, q.readonly)
	return v, translateError(err)
}

func (q *Queries) ListTallyMismatches(ctx context.Context, limit int) ([]*models.TallyMismatch, error) {
	v, err := GetTallyMismatches(ctx, q.readonly, limit)
	return v, translateError(err)
}

func (q *Queries) ListUnrewardedValidations(ctx context.Context, limit int) ([]*models.Validation, error) {
	v, err := GetUnrewardedValidations(ctx, q.readonly, limit)
	return v, translateError(err)
}
